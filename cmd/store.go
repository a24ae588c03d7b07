package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flowgate/flowgate/internal/models"
	"github.com/flowgate/flowgate/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage store operations",
	Long:  `Commands for managing the DynamoDB store directly, without going through the API.`,
}

var storeAddKeyCmd = &cobra.Command{
	Use:   "add-key",
	Short: "Add an API key directly to the store",
	Long:  `Add an API key directly to the DynamoDB credential table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.NewDynamoDBStore(GetConfig().Store)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}

		cred := &models.Credential{
			ID:        uuid.New().String(),
			Owner:     keyOwnerFlag,
			Name:      keyNameFlag,
			Value:     keyValueFlag,
			CreatedAt: time.Now(),
		}

		if err := db.CreateCredential(cred); err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}

		cmd.Printf("Successfully stored key %s for %s\n", cred.ID, cred.Owner)
		return nil
	},
}

var storeRemoveKeyCmd = &cobra.Command{
	Use:   "remove-key [id]",
	Short: "Remove an API key from the store",
	Long:  `Remove an API key from the DynamoDB credential table. Removing an unknown ID returns success (idempotent).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.NewDynamoDBStore(GetConfig().Store)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}

		if err := db.DeleteCredential(args[0]); err != nil {
			return fmt.Errorf("failed to remove credential: %w", err)
		}

		cmd.Printf("Successfully removed key %s\n", args[0])
		return nil
	},
}

var storeListKeysCmd = &cobra.Command{
	Use:   "list-keys",
	Short: "List API keys in the store",
	Long:  `List API keys in the DynamoDB credential table with secrets masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.NewDynamoDBStore(GetConfig().Store)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}

		creds, err := db.ListCredentials(keyOwnerFlag)
		if err != nil {
			return fmt.Errorf("failed to list credentials: %w", err)
		}

		for _, cred := range creds {
			cmd.Printf("%s  %s/%s  %s\n", cred.ID, cred.Owner, cred.Name, cred.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)

	// Add store flags (similar to serve command)
	storeCmd.PersistentFlags().String("store-region", "", "AWS region for DynamoDB")
	storeCmd.PersistentFlags().String("store-credential-table", "", "DynamoDB table name for API credentials")
	storeCmd.PersistentFlags().String("store-run-table", "", "DynamoDB table name for run history")
	storeCmd.PersistentFlags().String("store-endpoint", "", "DynamoDB endpoint (for local testing)")

	// Bind flags to viper
	cobra.CheckErr(v.BindPFlag("store.region", storeCmd.PersistentFlags().Lookup("store-region")))
	cobra.CheckErr(v.BindPFlag("store.credential_table_name", storeCmd.PersistentFlags().Lookup("store-credential-table")))
	cobra.CheckErr(v.BindPFlag("store.run_table_name", storeCmd.PersistentFlags().Lookup("store-run-table")))
	cobra.CheckErr(v.BindPFlag("store.endpoint", storeCmd.PersistentFlags().Lookup("store-endpoint")))

	// add-key flags
	storeAddKeyCmd.Flags().StringVar(&keyOwnerFlag, "owner", "", "Key owner (required)")
	storeAddKeyCmd.Flags().StringVar(&keyNameFlag, "name", "", "Key name (required)")
	storeAddKeyCmd.Flags().StringVar(&keyValueFlag, "value", "", "Secret value (required)")
	storeAddKeyCmd.MarkFlagRequired("owner")
	storeAddKeyCmd.MarkFlagRequired("name")
	storeAddKeyCmd.MarkFlagRequired("value")

	// list-keys flags
	storeListKeysCmd.Flags().StringVar(&keyOwnerFlag, "owner", "", "Filter by owner")

	// Add subcommands
	storeCmd.AddCommand(storeAddKeyCmd)
	storeCmd.AddCommand(storeRemoveKeyCmd)
	storeCmd.AddCommand(storeListKeysCmd)
}
