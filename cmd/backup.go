package cmd

import (
	"context"
	"time"

	awsclient "github.com/EO-DataHub/eodhp-scim-services/internal/aws"
	"github.com/EO-DataHub/eodhp-scim-services/internal/backup"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a snapshot of all Users and Groups to S3",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config and set up logging
		commonSetUp()

		ctx := context.Background()

		if err := openStores(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to load collections")
		}
		defer closeStores()

		awsCfg, err := awsclient.LoadAWSConfig(ctx, appCfg.AWS.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load AWS config")
		}

		key, err := backup.Upload(ctx, awsclient.NewS3Client(awsCfg), appCfg.Backup.Bucket, appCfg.Backup.Prefix,
			backup.Snapshot{
				TakenAt: time.Now().UTC(),
				Users:   usersStore.Snapshot(),
				Groups:  groupsStore.Snapshot(),
			})
		if err != nil {
			log.Fatal().Err(err).Msg("Backup failed")
		}

		log.Info().Str("bucket", appCfg.Backup.Bucket).Str("key", key).Msg("Backup complete")
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
