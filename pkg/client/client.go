// Package client provides a Go client for the Flowgate API.
//
// The client abstracts HTTP communication with the flowgate service and
// provides methods that correspond to the relay surface: triggering
// workflows, checking and awaiting run status, and managing stored API
// keys.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/flowgate/flowgate/internal/models"
)

// Client represents a flowgate API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets a custom user agent.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a new flowgate API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	// Validate and normalize base URL
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if u.Scheme == "" {
		u.Scheme = "http"
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   strings.TrimSuffix(u.String(), "/"),
		userAgent: "flowgate-client/1.0",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// HealthCheck checks if the flowgate service is healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return fmt.Errorf("creating health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// TriggerWorkflow triggers a workflow with a JSON payload. An empty
// endpoint uses the service's configured default webhook.
func (c *Client) TriggerWorkflow(ctx context.Context, payload map[string]interface{}, endpoint string) (*models.TriggerResponse, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload cannot be nil")
	}

	req := models.TriggerRequest{
		Payload:  payload,
		Endpoint: endpoint,
	}

	var resp models.TriggerResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/workflows/trigger", req, &resp); err != nil {
		return nil, fmt.Errorf("triggering workflow: %w", err)
	}

	return &resp, nil
}

// TriggerWorkflowFile triggers a workflow with a file-bearing multipart
// submission. Fields are sent as plain form values alongside the file.
func (c *Client) TriggerWorkflowFile(ctx context.Context, fields map[string]string, fileField, filename string, file io.Reader) (*models.TriggerResponse, error) {
	if file == nil {
		return nil, fmt.Errorf("file cannot be nil")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("writing form field %q: %w", name, err)
		}
	}

	part, err := mw.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("writing file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/workflows/trigger-file", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp models.TriggerResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("triggering workflow with file: %w", err)
	}

	return &resp, nil
}

// GetRun retrieves the current status of a workflow run.
func (c *Client) GetRun(ctx context.Context, runID string) (*models.RunStatusResponse, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}

	endpoint := fmt.Sprintf("/api/v1/workflows/runs/%s", runID)

	var resp models.RunStatusResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting run status: %w", err)
	}

	return &resp, nil
}

// ListRuns lists live workflow runs, newest first.
func (c *Client) ListRuns(ctx context.Context) ([]*models.RunStatusResponse, error) {
	var resp []*models.RunStatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/workflows/runs", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	return resp, nil
}

// AwaitRun blocks until the run reaches a terminal status or the service's
// poll budget is exhausted.
func (c *Client) AwaitRun(ctx context.Context, runID string) (*models.RunStatusResponse, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}

	endpoint := fmt.Sprintf("/api/v1/workflows/runs/%s/await", runID)

	var resp models.RunStatusResponse
	if err := c.doRequest(ctx, http.MethodPost, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("awaiting run: %w", err)
	}

	return &resp, nil
}

// CreateKey stores a user API key.
func (c *Client) CreateKey(ctx context.Context, owner, name, value string) (*models.KeyResponse, error) {
	if owner == "" || name == "" || value == "" {
		return nil, fmt.Errorf("owner, name and value cannot be empty")
	}

	req := models.CreateKeyRequest{
		Owner: owner,
		Name:  name,
		Value: value,
	}

	var resp models.KeyResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/keys", req, &resp); err != nil {
		return nil, fmt.Errorf("creating key: %w", err)
	}

	return &resp, nil
}

// GetKey retrieves a stored API key by ID, secret masked.
func (c *Client) GetKey(ctx context.Context, id string) (*models.KeyResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("key ID cannot be empty")
	}

	endpoint := fmt.Sprintf("/api/v1/keys/%s", id)

	var resp models.KeyResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting key: %w", err)
	}

	return &resp, nil
}

// ListKeys lists stored API keys, secrets masked. An empty owner lists all.
func (c *Client) ListKeys(ctx context.Context, owner string) ([]*models.KeyResponse, error) {
	endpoint := "/api/v1/keys"
	if owner != "" {
		endpoint += "?owner=" + url.QueryEscape(owner)
	}

	var resp []*models.KeyResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}

	return resp, nil
}

// DeleteKey removes a stored API key.
func (c *Client) DeleteKey(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("key ID cannot be empty")
	}

	endpoint := fmt.Sprintf("/api/v1/keys/%s", id)

	if err := c.doRequest(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	return nil
}

// doRequest performs an HTTP request with JSON serialization/deserialization.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes a prepared request and decodes the API response wrapper.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.handleErrorResponse(resp)
	}

	var apiResp models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if !apiResp.Success && apiResp.Error != "" {
		return fmt.Errorf("API error: %s", apiResp.Error)
	}

	// Re-marshal and unmarshal to convert the data to the expected type
	if result != nil && apiResp.Data != nil {
		data, err := json.Marshal(apiResp.Data)
		if err != nil {
			return fmt.Errorf("marshaling response data: %w", err)
		}

		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshaling response data: %w", err)
		}
	}

	return nil
}

// newRequest creates a new HTTP request with common headers.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	rel, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	u.Path = path.Join(u.Path, rel.Path)
	u.RawQuery = rel.RawQuery

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	return req, nil
}

// handleErrorResponse processes error responses from the API.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	// Try to decode as error response
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errResp.Message,
			ErrorCode:  errResp.Error,
		}
	}

	// Try to decode as API response with error
	var apiResp models.APIResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && !apiResp.Success {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    apiResp.Message,
			ErrorCode:  apiResp.Error,
		}
	}

	// Fallback to raw response
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
		ErrorCode:  fmt.Sprintf("HTTP_%d", resp.StatusCode),
	}
}

// APIError represents an error response from the flowgate API.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	ErrorCode  string `json:"error_code"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("flowgate API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("flowgate API error (%d): %s", e.StatusCode, e.ErrorCode)
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsBadRequest returns true if the error is a 400 Bad Request.
func (e *APIError) IsBadRequest() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsForbidden returns true if the error is a 403 Forbidden.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsConflict returns true if the error is a 409 Conflict.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}
