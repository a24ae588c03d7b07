package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/relay"
	"github.com/flowgate/flowgate/internal/server"
	"github.com/flowgate/flowgate/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the relay HTTP server with configured endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			fx.Provide(
				// Configuration
				GetConfig,

				// Service and server
				newRelayService,
				server.NewServer,
			),
			fx.Invoke(server.Start),
		)

		app.Run()
		return nil
	},
}

// newRelayService wires the relay service with the in-memory run store
// and, when configured, the DynamoDB credential store and run archive.
func newRelayService(cfg *config.Config) (*relay.Service, error) {
	var opts []relay.Option

	if cfg.Store.UsesDynamo() {
		db, err := store.NewDynamoDBStore(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		opts = append(opts,
			relay.WithCredentialStore(db),
			relay.WithRunArchive(db),
		)
	}

	return relay.New(cfg.Webhook, opts...), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags
	serveCmd.Flags().String("host", "0.0.0.0", "Server host")
	serveCmd.Flags().Int("port", 8080, "Server port")

	// Webhook flags
	serveCmd.Flags().String("webhook-url", "", "Default workflow webhook URL")
	serveCmd.Flags().String("webhook-status-url", "", "Base URL for job status checks")
	serveCmd.Flags().Duration("webhook-poll-interval", 0, "Pause between status checks")
	serveCmd.Flags().Int("webhook-poll-max-attempts", 0, "Attempt budget before a poll times out")

	// Store flags
	serveCmd.Flags().String("store-region", "", "AWS region for DynamoDB")
	serveCmd.Flags().String("store-credential-table", "", "DynamoDB table name for API credentials")
	serveCmd.Flags().String("store-run-table", "", "DynamoDB table name for run history")
	serveCmd.Flags().String("store-endpoint", "", "DynamoDB endpoint (for local testing)")

	// Bind flags to viper
	cobra.CheckErr(v.BindPFlag("server.host", serveCmd.Flags().Lookup("host")))
	cobra.CheckErr(v.BindPFlag("server.port", serveCmd.Flags().Lookup("port")))

	cobra.CheckErr(v.BindPFlag("webhook.url", serveCmd.Flags().Lookup("webhook-url")))
	cobra.CheckErr(v.BindPFlag("webhook.status_url", serveCmd.Flags().Lookup("webhook-status-url")))
	cobra.CheckErr(v.BindPFlag("webhook.poll_interval", serveCmd.Flags().Lookup("webhook-poll-interval")))
	cobra.CheckErr(v.BindPFlag("webhook.poll_max_attempts", serveCmd.Flags().Lookup("webhook-poll-max-attempts")))

	cobra.CheckErr(v.BindPFlag("store.region", serveCmd.Flags().Lookup("store-region")))
	cobra.CheckErr(v.BindPFlag("store.credential_table_name", serveCmd.Flags().Lookup("store-credential-table")))
	cobra.CheckErr(v.BindPFlag("store.run_table_name", serveCmd.Flags().Lookup("store-run-table")))
	cobra.CheckErr(v.BindPFlag("store.endpoint", serveCmd.Flags().Lookup("store-endpoint")))
}
