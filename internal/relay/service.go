// Package relay tracks workflow runs: it forwards trigger payloads to the
// configured webhook, records each invocation as a run, and resolves
// long-running jobs through the status poller.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/models"
	"github.com/flowgate/flowgate/internal/storage"
	"github.com/flowgate/flowgate/pkg/webhook"
)

var log = logging.Logger("service/relay")

var (
	ErrRunNotFound        = errors.New("run not found")
	ErrRunAlreadyTerminal = errors.New("run already terminal")
	ErrNoJobID            = errors.New("run has no job identifier to poll")
	ErrStorageFailure     = errors.New("unable to access run storage")
	ErrCredentialNotFound = errors.New("credential not found")
)

// DefaultRunRetention is how long finished runs stay queryable in the
// live store before expiring. Archived history is kept independently.
const DefaultRunRetention = 24 * time.Hour

// Service handles workflow trigger and status tracking logic
type Service struct {
	runs        storage.RunStore
	credentials storage.CredentialStore
	archive     storage.RunArchive

	invoker *webhook.Invoker
	poller  *webhook.Poller

	runRetention time.Duration
}

type Option func(*Service)

func WithRunStore(store storage.RunStore) Option {
	return func(s *Service) {
		s.runs = store
	}
}

func WithCredentialStore(store storage.CredentialStore) Option {
	return func(s *Service) {
		s.credentials = store
	}
}

func WithRunArchive(archive storage.RunArchive) Option {
	return func(s *Service) {
		s.archive = archive
	}
}

func WithInvoker(invoker *webhook.Invoker) Option {
	return func(s *Service) {
		s.invoker = invoker
	}
}

func WithPoller(poller *webhook.Poller) Option {
	return func(s *Service) {
		s.poller = poller
	}
}

func WithRunRetention(retention time.Duration) Option {
	return func(s *Service) {
		s.runRetention = retention
	}
}

func New(cfg config.WebhookConfig, opts ...Option) *Service {
	memory := storage.NewMemoryStore()

	service := &Service{
		runs:        memory,
		credentials: memory,
		invoker: webhook.NewInvoker(cfg.URL,
			webhook.WithTimeout(cfg.Timeout),
		),
		poller: webhook.NewPoller(cfg.StatusURL,
			webhook.WithInterval(cfg.PollInterval),
			webhook.WithMaxAttempts(cfg.PollMaxAttempts),
		),
		runRetention: DefaultRunRetention,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Trigger forwards a JSON payload to the webhook and records the
// invocation as a run. Webhook failures are folded into the run state,
// not returned as errors; the error return covers storage failures only.
func (s *Service) Trigger(ctx context.Context, req models.TriggerRequest) (*models.TriggerResponse, error) {
	res := s.invoker.InvokeTo(ctx, s.resolveEndpoint(req.Endpoint), req.Payload)
	return s.recordTrigger(req.Endpoint, res)
}

// TriggerForm forwards a multipart submission to the webhook and records
// the invocation as a run.
func (s *Service) TriggerForm(ctx context.Context, form *webhook.Form, endpoint string) (*models.TriggerResponse, error) {
	res := s.invoker.InvokeFormTo(ctx, s.resolveEndpoint(endpoint), form)
	return s.recordTrigger(endpoint, res)
}

func (s *Service) resolveEndpoint(override string) string {
	if override != "" {
		return override
	}
	return s.invoker.Endpoint()
}

func (s *Service) recordTrigger(endpoint string, res webhook.Result) (*models.TriggerResponse, error) {
	now := time.Now()
	run := &models.WorkflowRun{
		RunID:     uuid.New().String(),
		Endpoint:  endpoint,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.runRetention),
	}

	if res.Success {
		run.JobID = extractJobID(res.Data)
		if run.JobID != "" {
			// Long-running workflow: the webhook handed back a job to poll.
			run.Status = models.RunStatusRunning
		} else {
			run.Status = models.RunStatusSucceeded
			run.Result = res.Data
		}
	} else {
		run.Status = models.RunStatusFailed
		run.Error = res.Error
	}

	if err := s.runs.CreateRun(run); err != nil {
		log.Errorw("failed to record run", "run_id", run.RunID, "error", err)
		return nil, ErrStorageFailure
	}

	log.Infow("workflow triggered",
		"run_id", run.RunID,
		"job_id", run.JobID,
		"status", run.Status)

	return &models.TriggerResponse{
		RunID:  run.RunID,
		JobID:  run.JobID,
		Status: run.Status,
		Result: run.Result,
		Error:  run.Error,
	}, nil
}

// Await polls the workflow backend until the run's job reaches a terminal
// status, then persists and returns the outcome. Runs that are already
// terminal are returned as-is.
func (s *Service) Await(ctx context.Context, runID string) (*models.RunStatusResponse, error) {
	run, err := s.runs.GetRun(runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if models.Terminal(run.Status) {
		return statusResponse(run), nil
	}

	if run.JobID == "" {
		return nil, ErrNoJobID
	}

	res := s.poller.Poll(ctx, run.JobID)
	if res.Success {
		run.Status = models.RunStatusSucceeded
		run.Result = res.Data
		run.Error = ""
	} else {
		run.Status = models.RunStatusFailed
		run.Error = res.Error
	}

	if err := s.runs.UpdateRun(run); err != nil {
		log.Errorw("failed to update run", "run_id", run.RunID, "error", err)
		return nil, ErrStorageFailure
	}

	if s.archive != nil {
		if err := s.archive.ArchiveRun(run); err != nil {
			// History is best effort; the live state is already correct.
			log.Errorw("failed to archive run", "run_id", run.RunID, "error", err)
		}
	}

	log.Infow("run resolved",
		"run_id", run.RunID,
		"status", run.Status)

	return statusResponse(run), nil
}

// GetRun returns the current state of a run.
func (s *Service) GetRun(runID string) (*models.RunStatusResponse, error) {
	run, err := s.runs.GetRun(runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return statusResponse(run), nil
}

// ListRuns returns all live runs, newest first.
func (s *Service) ListRuns() ([]*models.RunStatusResponse, error) {
	runs, err := s.runs.ListRuns()
	if err != nil {
		return nil, ErrStorageFailure
	}

	out := make([]*models.RunStatusResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, statusResponse(run))
	}
	return out, nil
}

// CreateKey stores a user API key.
func (s *Service) CreateKey(req models.CreateKeyRequest) (*models.KeyResponse, error) {
	cred := &models.Credential{
		ID:        uuid.New().String(),
		Owner:     req.Owner,
		Name:      req.Name,
		Value:     req.Value,
		CreatedAt: time.Now(),
	}

	if err := s.credentials.CreateCredential(cred); err != nil {
		log.Errorw("failed to store credential", "owner", cred.Owner, "name", cred.Name, "error", err)
		return nil, ErrStorageFailure
	}

	return keyResponse(cred), nil
}

// GetKey returns a stored API key by ID with its secret masked.
func (s *Service) GetKey(id string) (*models.KeyResponse, error) {
	cred, err := s.credentials.GetCredential(id)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialNotFound, id)
		}
		log.Errorw("failed to load credential", "id", id, "error", err)
		return nil, ErrStorageFailure
	}
	return keyResponse(cred), nil
}

// ListKeys lists stored API keys with secrets masked.
func (s *Service) ListKeys(owner string) ([]*models.KeyResponse, error) {
	creds, err := s.credentials.ListCredentials(owner)
	if err != nil {
		return nil, ErrStorageFailure
	}

	out := make([]*models.KeyResponse, 0, len(creds))
	for _, cred := range creds {
		out = append(out, keyResponse(cred))
	}
	return out, nil
}

// DeleteKey removes a stored API key.
func (s *Service) DeleteKey(id string) error {
	if err := s.credentials.DeleteCredential(id); err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			return fmt.Errorf("%w: %s", ErrCredentialNotFound, id)
		}
		log.Errorw("failed to delete credential", "id", id, "error", err)
		return ErrStorageFailure
	}
	return nil
}

// extractJobID pulls a job identifier from a webhook response body.
// n8n reports executionId; other backends use jobId or job_id.
func extractJobID(data interface{}) string {
	body, ok := data.(map[string]interface{})
	if !ok {
		return ""
	}

	for _, key := range []string{"jobId", "job_id", "executionId"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func statusResponse(run *models.WorkflowRun) *models.RunStatusResponse {
	return &models.RunStatusResponse{
		RunID:     run.RunID,
		JobID:     run.JobID,
		Status:    run.Status,
		Result:    run.Result,
		Error:     run.Error,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		UpdatedAt: run.UpdatedAt.Format(time.RFC3339),
	}
}

func keyResponse(cred *models.Credential) *models.KeyResponse {
	return &models.KeyResponse{
		ID:        cred.ID,
		Owner:     cred.Owner,
		Name:      cred.Name,
		CreatedAt: cred.CreatedAt.Format(time.RFC3339),
	}
}
