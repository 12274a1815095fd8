package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/EO-DataHub/eodhp-scim-services/api"
	"github.com/EO-DataHub/eodhp-scim-services/api/services"
	"github.com/EO-DataHub/eodhp-scim-services/docs"
	"github.com/EO-DataHub/eodhp-scim-services/internal/authn"
	awsclient "github.com/EO-DataHub/eodhp-scim-services/internal/aws"
	"github.com/EO-DataHub/eodhp-scim-services/internal/events"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// @title EODHP SCIM Services API
// @version v1
// @description Bearer-token protected SCIM provisioning of Users and Groups.
// @BasePath /scim/v2
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server for handling SCIM requests",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config and set up logging
		commonSetUp()

		if cmd.Flags().Changed("host") {
			appCfg.Host = host
		}
		if cmd.Flags().Changed("port") {
			appCfg.Port = port
		}
		if err := appCfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		secret, err := resolveSecret(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to resolve bearer token")
		}

		if err := openStores(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to load collections")
		}
		defer closeStores()

		publisher := newNotifier()
		defer publisher.Close()

		service := &services.Service{
			Config:    appCfg,
			Users:     usersStore,
			Groups:    groupsStore,
			Publisher: publisher,
		}

		docs.SwaggerInfo.Host = appCfg.Addr()

		srv := &http.Server{
			Addr:         appCfg.Addr(),
			Handler:      api.NewRouter(service, secret),
			ReadTimeout:  appCfg.HTTP.ReadTimeout,
			WriteTimeout: appCfg.HTTP.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Msgf("Server started at %s", appCfg.Addr())
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("could not start server")
			}
		case <-ctx.Done():
			log.Info().Msg("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("graceful shutdown failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "host to run the server on")
	serveCmd.Flags().IntVar(&port, "port", 8000, "port to run the server on")
}

// resolveSecret returns the bearer token, fetching it from Secrets Manager when a
// secret id is configured.
func resolveSecret(ctx context.Context) (string, error) {
	if appCfg.Auth.SecretID == "" {
		return authn.ResolveToken(ctx, appCfg.Auth, nil)
	}

	awsCfg, err := awsclient.LoadAWSConfig(ctx, appCfg.AWS.Region)
	if err != nil {
		return "", err
	}
	return authn.ResolveToken(ctx, appCfg.Auth, awsclient.NewSecretsManagerClient(awsCfg))
}

// newNotifier connects to Pulsar when a URL is configured. A broker that can't be reached
// at startup only disables events.
func newNotifier() events.Notifier {
	if appCfg.Pulsar.URL == "" {
		log.Info().Msg("Pulsar URL not set, provisioning events disabled")
		return events.NoopNotifier{}
	}

	publisher, err := events.NewEventPublisher(appCfg.Pulsar.URL, appCfg.Pulsar.TopicProducer)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize event publisher, provisioning events disabled")
		return events.NoopNotifier{}
	}
	log.Info().Str("topic", appCfg.Pulsar.TopicProducer).Msg("Publishing provisioning events")
	return publisher
}
