package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowgate/flowgate/pkg/client"
)

// workflowCmd represents the workflow command
var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Workflow commands",
	Long:  `Commands for triggering workflows and tracking their runs.`,
}

// triggerCmd represents the trigger command
var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Trigger a workflow with a JSON payload",
	Long: `Trigger a workflow by forwarding a JSON payload to the webhook.

The payload is sent as-is to the configured webhook (or to --endpoint).
Long-running workflows return a job identifier; use 'workflow await'
to block until they finish.`,
	RunE: runTrigger,
}

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Trigger a workflow with a file",
	Long:  `Trigger a workflow by sending a file as a multipart submission.`,
	RunE:  runUpload,
}

// runStatusCmd represents the status command
var runStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check workflow run status",
	Long:  `Check the current status of a workflow run.`,
	RunE:  runRunStatus,
}

// awaitCmd represents the await command
var awaitCmd = &cobra.Command{
	Use:   "await",
	Short: "Wait for a workflow run to finish",
	Long: `Block until a workflow run reaches a terminal status.

The service polls the workflow backend's status endpoint on your behalf;
raise --timeout for workflows that run longer than the default.`,
	RunE: runAwait,
}

// listRunsCmd represents the list command
var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflow runs",
	Long:  `List live workflow runs, newest first.`,
	RunE:  runListRuns,
}

var (
	dataFlag     string
	endpointFlag string
	runIDFlag    string
	fileFlag     string
	fieldFlag    string
	setFlags     []string
)

func init() {
	clientCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(triggerCmd)
	workflowCmd.AddCommand(uploadCmd)
	workflowCmd.AddCommand(runStatusCmd)
	workflowCmd.AddCommand(awaitCmd)
	workflowCmd.AddCommand(listRunsCmd)

	// trigger flags
	triggerCmd.Flags().StringVar(&dataFlag, "data", "", "JSON payload (required)")
	triggerCmd.Flags().StringVar(&endpointFlag, "endpoint", "", "Webhook URL override")
	triggerCmd.MarkFlagRequired("data")

	// upload flags
	uploadCmd.Flags().StringVar(&fileFlag, "file", "", "Path of the file to send (required)")
	uploadCmd.Flags().StringVar(&fieldFlag, "field", "file", "Form field name for the file part")
	uploadCmd.Flags().StringArrayVar(&setFlags, "set", nil, "Extra form field as key=value (repeatable)")
	uploadCmd.Flags().StringVar(&endpointFlag, "endpoint", "", "Webhook URL override")
	uploadCmd.MarkFlagRequired("file")

	// status flags
	runStatusCmd.Flags().StringVar(&runIDFlag, "run-id", "", "Workflow run ID (required)")
	runStatusCmd.MarkFlagRequired("run-id")

	// await flags
	awaitCmd.Flags().StringVar(&runIDFlag, "run-id", "", "Workflow run ID (required)")
	awaitCmd.MarkFlagRequired("run-id")
}

func runTrigger(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(dataFlag), &payload); err != nil {
		return fmt.Errorf("invalid --data payload: %w", err)
	}

	resp, err := c.TriggerWorkflow(newContext(), payload, endpointFlag)
	if err != nil {
		if apiErr, ok := err.(*client.APIError); ok && apiErr.IsBadRequest() {
			return fmt.Errorf("invalid payload: %w", err)
		}
		return fmt.Errorf("triggering workflow: %w", err)
	}

	// Pretty print the response
	output, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))

	if resp.JobID != "" {
		cmd.Printf("\nWorkflow is still running. Wait for it with:\n")
		cmd.Printf("   flowgate client workflow await --run-id %s\n", resp.RunID)
	}

	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	f, err := os.Open(fileFlag)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	fields := make(map[string]string, len(setFlags)+1)
	for _, kv := range setFlags {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid --set value %q, expected key=value", kv)
		}
		fields[key] = value
	}
	if endpointFlag != "" {
		fields["endpoint"] = endpointFlag
	}

	resp, err := c.TriggerWorkflowFile(newContext(), fields, fieldFlag, filepath.Base(fileFlag), f)
	if err != nil {
		return fmt.Errorf("triggering workflow with file: %w", err)
	}

	output, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))
	return nil
}

func runRunStatus(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	resp, err := c.GetRun(newContext(), runIDFlag)
	if err != nil {
		if apiErr, ok := err.(*client.APIError); ok && apiErr.IsNotFound() {
			return fmt.Errorf("run not found: %w", err)
		}
		return fmt.Errorf("getting run status: %w", err)
	}

	output, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))
	return nil
}

func runAwait(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	resp, err := c.AwaitRun(newContext(), runIDFlag)
	if err != nil {
		if apiErr, ok := err.(*client.APIError); ok {
			if apiErr.IsNotFound() {
				return fmt.Errorf("run not found: %w", err)
			}
			if apiErr.IsBadRequest() {
				return fmt.Errorf("run has no job to poll: %w", err)
			}
		}
		return fmt.Errorf("awaiting run: %w", err)
	}

	output, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))
	return nil
}

func runListRuns(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	runs, err := c.ListRuns(newContext())
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	output, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	cmd.Println(string(output))
	return nil
}
