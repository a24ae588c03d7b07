package storage

import "github.com/flowgate/flowgate/internal/models"

// RunStore tracks live workflow runs.
type RunStore interface {
	CreateRun(run *models.WorkflowRun) error
	GetRun(runID string) (*models.WorkflowRun, error)
	UpdateRun(run *models.WorkflowRun) error
	ListRuns() ([]*models.WorkflowRun, error)
}

// CredentialStore persists user API keys.
type CredentialStore interface {
	CreateCredential(cred *models.Credential) error
	GetCredential(id string) (*models.Credential, error)
	ListCredentials(owner string) ([]*models.Credential, error)
	DeleteCredential(id string) error
}

// RunArchive receives terminal runs for long-term history.
type RunArchive interface {
	ArchiveRun(run *models.WorkflowRun) error
}
