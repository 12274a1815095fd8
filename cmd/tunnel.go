package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/EO-DataHub/eodhp-scim-services/internal/tunnel"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var tunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Open an SSH tunnel to the database for local development",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config and set up logging
		commonSetUp()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctx = log.Logger.WithContext(ctx)
		if err := tunnel.Start(ctx, appCfg.Tunnel); err != nil {
			log.Fatal().Err(err).Msg("SSH tunnel failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(tunnelCmd)
}
