package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flowgate/flowgate/internal/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{
			name:    "valid URL",
			baseURL: "http://localhost:8080",
			wantErr: false,
		},
		{
			name:    "URL without scheme",
			baseURL: "localhost:8080",
			wantErr: false,
		},
		{
			name:    "empty URL",
			baseURL: "",
			wantErr: true,
		},
		{
			name:    "invalid URL",
			baseURL: "://invalid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && client == nil {
				t.Error("New() returned nil client")
			}
		})
	}
}

func TestClientWithOptions(t *testing.T) {
	customClient := &http.Client{Timeout: 5 * time.Second}
	userAgent := "test-client/1.0"

	client, err := New("http://localhost:8080",
		WithHTTPClient(customClient),
		WithUserAgent(userAgent),
		WithTimeout(10*time.Second),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.httpClient != customClient {
		t.Error("WithHTTPClient() did not set custom client")
	}
	if client.userAgent != userAgent {
		t.Error("WithUserAgent() did not set custom user agent")
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{
			name:       "healthy service",
			statusCode: http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "unhealthy service",
			statusCode: http.StatusInternalServerError,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("Expected path /health, got %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			err = client.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTriggerWorkflow(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]interface{}
		statusCode int
		response   models.APIResponse
		wantErr    bool
	}{
		{
			name:       "successful trigger",
			payload:    map[string]interface{}{"message": "hello"},
			statusCode: http.StatusOK,
			response: models.APIResponse{
				Success: true,
				Message: "Workflow triggered",
				Data: models.TriggerResponse{
					RunID:  "run123",
					JobID:  "job456",
					Status: models.RunStatusRunning,
				},
			},
			wantErr: false,
		},
		{
			name:    "nil payload",
			payload: nil,
			wantErr: true,
		},
		{
			name:       "webhook failure",
			payload:    map[string]interface{}{"message": "hello"},
			statusCode: http.StatusOK,
			response: models.APIResponse{
				Success: false,
				Error:   "webhook returned status 500",
				Data: models.TriggerResponse{
					RunID:  "run123",
					Status: models.RunStatusFailed,
					Error:  "webhook returned status 500",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.payload == nil {
				// Skip server setup for validation tests
				client, err := New("http://localhost:8080")
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}

				_, err = client.TriggerWorkflow(context.Background(), tt.payload, "")
				if !tt.wantErr {
					t.Errorf("TriggerWorkflow() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/workflows/trigger" {
					t.Errorf("Expected path /api/v1/workflows/trigger, got %s", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("Expected method POST, got %s", r.Method)
				}

				var req models.TriggerRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("Failed to decode request: %v", err)
				}
				if req.Payload["message"] != tt.payload["message"] {
					t.Errorf("Expected payload %v, got %v", tt.payload, req.Payload)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			resp, err := client.TriggerWorkflow(context.Background(), tt.payload, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("TriggerWorkflow() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && resp == nil {
				t.Error("TriggerWorkflow() returned nil response")
			}
		})
	}
}

func TestTriggerWorkflowFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/workflows/trigger-file" {
			t.Errorf("Expected path /api/v1/workflows/trigger-file, got %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Expected multipart content type, got %s", r.Header.Get("Content-Type"))
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("note"); got != "report" {
			t.Errorf("Expected field note=report, got %s", got)
		}
		if _, header, err := r.FormFile("file"); err != nil {
			t.Errorf("Failed to read file part: %v", err)
		} else if header.Filename != "report.csv" {
			t.Errorf("Expected filename report.csv, got %s", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.APIResponse{
			Success: true,
			Data: models.TriggerResponse{
				RunID:  "run789",
				Status: models.RunStatusSucceeded,
			},
		})
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := client.TriggerWorkflowFile(context.Background(),
		map[string]string{"note": "report"},
		"file", "report.csv", strings.NewReader("a,b,c"),
	)
	if err != nil {
		t.Fatalf("TriggerWorkflowFile() error = %v", err)
	}
	if resp.RunID != "run789" {
		t.Errorf("TriggerWorkflowFile() run ID = %s, want run789", resp.RunID)
	}
}

func TestGetRun(t *testing.T) {
	tests := []struct {
		name       string
		runID      string
		statusCode int
		response   interface{}
		wantErr    bool
	}{
		{
			name:       "existing run",
			runID:      "run123",
			statusCode: http.StatusOK,
			response: models.APIResponse{
				Success: true,
				Data: models.RunStatusResponse{
					RunID:  "run123",
					Status: models.RunStatusSucceeded,
				},
			},
			wantErr: false,
		},
		{
			name:    "empty run ID",
			runID:   "",
			wantErr: true,
		},
		{
			name:       "not found",
			runID:      "missing",
			statusCode: http.StatusNotFound,
			response: models.ErrorResponse{
				Error:   "run_not_found",
				Message: "Run 'missing' not found",
				Code:    http.StatusNotFound,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.runID == "" {
				// Skip server setup for validation tests
				client, err := New("http://localhost:8080")
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}

				_, err = client.GetRun(context.Background(), tt.runID)
				if !tt.wantErr {
					t.Errorf("GetRun() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				expectedPath := "/api/v1/workflows/runs/" + tt.runID
				if r.URL.Path != expectedPath {
					t.Errorf("Expected path %s, got %s", expectedPath, r.URL.Path)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			resp, err := client.GetRun(context.Background(), tt.runID)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetRun() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if apiErr, ok := err.(*APIError); ok && !apiErr.IsNotFound() {
					t.Errorf("Expected not-found APIError, got %v", err)
				}
				return
			}

			if resp == nil {
				t.Error("GetRun() returned nil response")
			}
		})
	}
}

func TestGetKey(t *testing.T) {
	tests := []struct {
		name       string
		keyID      string
		statusCode int
		response   interface{}
		wantErr    bool
	}{
		{
			name:       "existing key",
			keyID:      "key-1",
			statusCode: http.StatusOK,
			response: models.APIResponse{
				Success: true,
				Data: models.KeyResponse{
					ID:    "key-1",
					Owner: "user-1",
					Name:  "n8n",
				},
			},
			wantErr: false,
		},
		{
			name:    "empty key ID",
			keyID:   "",
			wantErr: true,
		},
		{
			name:       "not found",
			keyID:      "missing",
			statusCode: http.StatusNotFound,
			response: models.ErrorResponse{
				Error:   "key_not_found",
				Message: "Key 'missing' not found",
				Code:    http.StatusNotFound,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.keyID == "" {
				// Skip server setup for validation tests
				client, err := New("http://localhost:8080")
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}

				_, err = client.GetKey(context.Background(), tt.keyID)
				if !tt.wantErr {
					t.Errorf("GetKey() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				expectedPath := "/api/v1/keys/" + tt.keyID
				if r.URL.Path != expectedPath {
					t.Errorf("Expected path %s, got %s", expectedPath, r.URL.Path)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			key, err := client.GetKey(context.Background(), tt.keyID)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetKey() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if apiErr, ok := err.(*APIError); ok && !apiErr.IsNotFound() {
					t.Errorf("Expected not-found APIError, got %v", err)
				}
				return
			}

			if key.ID != tt.keyID {
				t.Errorf("GetKey() ID = %s, want %s", key.ID, tt.keyID)
			}
		})
	}
}

func TestListKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/keys" {
			t.Errorf("Expected path /api/v1/keys, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("owner"); got != "user-1" {
			t.Errorf("Expected owner query user-1, got %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.APIResponse{
			Success: true,
			Data: []models.KeyResponse{
				{ID: "key-1", Owner: "user-1", Name: "n8n"},
			},
		})
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	keys, err := client.ListKeys(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}
	if len(keys) != 1 || keys[0].Name != "n8n" {
		t.Errorf("ListKeys() = %+v, want one key named n8n", keys)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name: "error with message",
			err: &APIError{
				StatusCode: 400,
				Message:    "Invalid request",
				ErrorCode:  "invalid_request",
			},
			expected: "flowgate API error (400): Invalid request",
		},
		{
			name: "error without message",
			err: &APIError{
				StatusCode: 404,
				ErrorCode:  "not_found",
			},
			expected: "flowgate API error (404): not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("APIError.Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAPIErrorMethods(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		isNotFound bool
		isBadReq   bool
		isForbid   bool
		isConflict bool
	}{
		{
			name:       "not found",
			statusCode: 404,
			isNotFound: true,
		},
		{
			name:       "bad request",
			statusCode: 400,
			isBadReq:   true,
		},
		{
			name:       "forbidden",
			statusCode: 403,
			isForbid:   true,
		},
		{
			name:       "conflict",
			statusCode: 409,
			isConflict: true,
		},
		{
			name:       "other error",
			statusCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: tt.statusCode}

			if got := err.IsNotFound(); got != tt.isNotFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.isNotFound)
			}
			if got := err.IsBadRequest(); got != tt.isBadReq {
				t.Errorf("IsBadRequest() = %v, want %v", got, tt.isBadReq)
			}
			if got := err.IsForbidden(); got != tt.isForbid {
				t.Errorf("IsForbidden() = %v, want %v", got, tt.isForbid)
			}
			if got := err.IsConflict(); got != tt.isConflict {
				t.Errorf("IsConflict() = %v, want %v", got, tt.isConflict)
			}
		})
	}
}
