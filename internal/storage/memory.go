package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/flowgate/flowgate/internal/models"
)

var log = logging.Logger("storage/memory")

var (
	ErrRunNotFound        = errors.New("run not found")
	ErrRunExpired         = errors.New("run expired")
	ErrCredentialNotFound = errors.New("credential not found")
)

// MemoryStore provides in-memory storage that mimics the DynamoDB interfaces
type MemoryStore struct {
	runs        map[string]*models.WorkflowRun
	credentials map[string]*models.Credential
	mu          sync.RWMutex
}

// NewMemoryStore creates a new in-memory store that implements both
// RunStore and CredentialStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:        make(map[string]*models.WorkflowRun),
		credentials: make(map[string]*models.Credential),
	}
}

// Workflow run operations
func (m *MemoryStore) CreateRun(run *models.WorkflowRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Debugw("Creating run",
		"run_id", run.RunID,
		"job_id", run.JobID,
		"status", run.Status)

	stored := *run
	m.runs[run.RunID] = &stored
	return nil
}

func (m *MemoryStore) GetRun(runID string) (*models.WorkflowRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, exists := m.runs[runID]
	if !exists {
		log.Debugw("Run not found", "run_id", runID)
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if !run.ExpiresAt.IsZero() && time.Now().After(run.ExpiresAt) {
		log.Debugw("Run expired",
			"run_id", runID,
			"expired_at", run.ExpiresAt.Format(time.RFC3339))
		return nil, fmt.Errorf("%w: %s", ErrRunExpired, runID)
	}

	// Hand out a copy so callers can mutate freely; changes only land in
	// the store through UpdateRun.
	found := *run
	return &found, nil
}

func (m *MemoryStore) UpdateRun(run *models.WorkflowRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.RunID]; !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.RunID)
	}

	run.UpdatedAt = time.Now()
	stored := *run
	m.runs[run.RunID] = &stored
	return nil
}

func (m *MemoryStore) ListRuns() ([]*models.WorkflowRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*models.WorkflowRun, 0, len(m.runs))
	now := time.Now()
	for _, run := range m.runs {
		if !run.ExpiresAt.IsZero() && now.After(run.ExpiresAt) {
			continue
		}
		listed := *run
		runs = append(runs, &listed)
	}

	// Newest first, stable for the API and CLI listings.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

// Credential operations
func (m *MemoryStore) CreateCredential(cred *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Debugw("Storing credential",
		"id", cred.ID,
		"owner", cred.Owner,
		"name", cred.Name)

	m.credentials[cred.ID] = cred
	return nil
}

func (m *MemoryStore) GetCredential(id string) (*models.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, exists := m.credentials[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCredentialNotFound, id)
	}

	return cred, nil
}

func (m *MemoryStore) ListCredentials(owner string) ([]*models.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	creds := make([]*models.Credential, 0)
	for _, cred := range m.credentials {
		if owner == "" || cred.Owner == owner {
			creds = append(creds, cred)
		}
	}

	sort.Slice(creds, func(i, j int) bool {
		return creds[i].CreatedAt.Before(creds[j].CreatedAt)
	})

	return creds, nil
}

func (m *MemoryStore) DeleteCredential(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.credentials[id]; !exists {
		return fmt.Errorf("%w: %s", ErrCredentialNotFound, id)
	}

	delete(m.credentials, id)
	return nil
}

// ArchiveRun satisfies RunArchive so the memory store can stand in for
// DynamoDB in tests and local development. Archived runs stay listable.
func (m *MemoryStore) ArchiveRun(run *models.WorkflowRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	archived := *run
	m.runs[run.RunID] = &archived
	return nil
}
