package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/EO-DataHub/eodhp-scim-services/internal/events"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Run the Pulsar consumer and log provisioning events",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config and set up logging
		commonSetUp()

		if appCfg.Pulsar.URL == "" {
			log.Fatal().Msg("pulsar.url is not configured")
		}

		// Initialize event consumer
		consumer, err := events.NewEventConsumer(appCfg.Pulsar.URL, appCfg.Pulsar.TopicConsumer, appCfg.Pulsar.Subscription)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event consumer")
		}
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Consume messages
		log.Debug().Msg("Waiting for messages...")
		err = consumer.Run(log.Logger.WithContext(ctx), func(ctx context.Context, event events.Event) error {
			log.Info().
				Str("action", event.Action).
				Str("resource_type", event.ResourceType).
				Str("id", event.ID).
				Int64("timestamp", event.Timestamp).
				Msg("Provisioning event")
			return nil
		})
		if err != nil {
			log.Error().Err(err).Msg("Consumer failed")
			return
		}
		log.Info().Msg("Consumer stopped")
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
