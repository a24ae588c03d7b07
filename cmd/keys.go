package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowgate/flowgate/pkg/client"
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "API key commands",
	Long:  `Commands for managing stored workflow backend API keys.`,
}

var addKeyCmd = &cobra.Command{
	Use:   "add",
	Short: "Store an API key",
	Long:  `Store an API key for a workflow backend. The secret is never echoed back.`,
	RunE:  runAddKey,
}

var getKeyCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a stored API key",
	Long:  `Show a stored API key by ID with its secret masked.`,
	RunE:  runGetKey,
}

var listKeysCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored API keys",
	Long:  `List stored API keys with their secrets masked.`,
	RunE:  runListKeys,
}

var removeKeyCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a stored API key",
	Long:  `Remove a stored API key by ID.`,
	RunE:  runRemoveKey,
}

var (
	keyOwnerFlag string
	keyNameFlag  string
	keyValueFlag string
	keyIDFlag    string
)

func init() {
	clientCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(addKeyCmd)
	keysCmd.AddCommand(getKeyCmd)
	keysCmd.AddCommand(listKeysCmd)
	keysCmd.AddCommand(removeKeyCmd)

	// add flags
	addKeyCmd.Flags().StringVar(&keyOwnerFlag, "owner", "", "Key owner (required)")
	addKeyCmd.Flags().StringVar(&keyNameFlag, "name", "", "Key name (required)")
	addKeyCmd.Flags().StringVar(&keyValueFlag, "value", "", "Secret value (required)")
	addKeyCmd.MarkFlagRequired("owner")
	addKeyCmd.MarkFlagRequired("name")
	addKeyCmd.MarkFlagRequired("value")

	// get flags
	getKeyCmd.Flags().StringVar(&keyIDFlag, "id", "", "Key ID (required)")
	getKeyCmd.MarkFlagRequired("id")

	// list flags
	listKeysCmd.Flags().StringVar(&keyOwnerFlag, "owner", "", "Filter by owner")

	// remove flags
	removeKeyCmd.Flags().StringVar(&keyIDFlag, "id", "", "Key ID (required)")
	removeKeyCmd.MarkFlagRequired("id")
}

func runAddKey(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	resp, err := c.CreateKey(newContext(), keyOwnerFlag, keyNameFlag, keyValueFlag)
	if err != nil {
		return fmt.Errorf("storing key: %w", err)
	}

	output, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))
	return nil
}

func runGetKey(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	key, err := c.GetKey(newContext(), keyIDFlag)
	if err != nil {
		if apiErr, ok := err.(*client.APIError); ok && apiErr.IsNotFound() {
			return fmt.Errorf("key not found: %w", err)
		}
		return fmt.Errorf("getting key: %w", err)
	}

	output, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))
	return nil
}

func runListKeys(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	keys, err := c.ListKeys(newContext(), keyOwnerFlag)
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}

	output, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))
	return nil
}

func runRemoveKey(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	if err := c.DeleteKey(newContext(), keyIDFlag); err != nil {
		if apiErr, ok := err.(*client.APIError); ok && apiErr.IsNotFound() {
			return fmt.Errorf("key not found: %w", err)
		}
		return fmt.Errorf("removing key: %w", err)
	}

	cmd.Printf("Key %s removed\n", keyIDFlag)
	return nil
}
