package models

import "time"

// WorkflowRun tracks a single workflow invocation from trigger to terminal state.
type WorkflowRun struct {
	RunID     string      `json:"run_id" db:"run_id"`
	JobID     string      `json:"job_id,omitempty" db:"job_id"`
	Endpoint  string      `json:"endpoint" db:"endpoint"`
	Status    string      `json:"status" db:"status"`
	Result    interface{} `json:"result,omitempty" db:"result"`
	Error     string      `json:"error,omitempty" db:"error"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
	ExpiresAt time.Time   `json:"expires_at" db:"expires_at"`
}

// WorkflowRun status constants
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Terminal reports whether a run status is final.
func Terminal(status string) bool {
	return status == RunStatusSucceeded || status == RunStatusFailed
}

// TriggerRequest represents the request to trigger a workflow
type TriggerRequest struct {
	Payload  map[string]interface{} `json:"payload" validate:"required"`
	Endpoint string                 `json:"endpoint,omitempty"`
}

// TriggerResponse represents the response for a workflow trigger
type TriggerResponse struct {
	RunID  string      `json:"run_id"`
	JobID  string      `json:"job_id,omitempty"`
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// RunStatusResponse represents the status of a workflow run
type RunStatusResponse struct {
	RunID     string      `json:"run_id"`
	JobID     string      `json:"job_id,omitempty"`
	Status    string      `json:"status"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}
