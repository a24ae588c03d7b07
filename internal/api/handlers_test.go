package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/models"
	"github.com/flowgate/flowgate/internal/relay"
)

// newTestAPI wires the full route table against a relay service pointed at
// the given webhook URL.
func newTestAPI(webhookURL string) *echo.Echo {
	service := relay.New(config.WebhookConfig{
		URL:             webhookURL,
		Timeout:         5 * time.Second,
		PollInterval:    5 * time.Millisecond,
		PollMaxAttempts: 3,
	})

	e := echo.New()
	RegisterRoutes(e, service)
	return e
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var envelope models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestHealthCheck(t *testing.T) {
	e := newTestAPI("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
}

func TestTriggerEndpoint(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"greeting": "hello"})
	}))
	defer backend.Close()

	e := newTestAPI(backend.URL)

	body := `{"payload": {"name": "world"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/trigger", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, models.RunStatusSucceeded, data["status"])
}

func TestTriggerEndpointMissingPayload(t *testing.T) {
	e := newTestAPI("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/trigger", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "missing_payload", errResp.Error)
}

func TestTriggerEndpointWebhookFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	e := newTestAPI(backend.URL)

	body := `{"payload": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/trigger", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// The HTTP layer reports the envelope; the webhook failure lives inside it.
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "503")
}

func TestTriggerFileEndpoint(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "report", r.FormValue("kind"))

		_, fh, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", fh.Filename)

		json.NewEncoder(w).Encode(map[string]interface{}{"received": true})
	}))
	defer backend.Close()

	e := newTestAPI(backend.URL)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", "report"))
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/trigger-file", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
}

func TestGetRunNotFound(t *testing.T) {
	e := newTestAPI("")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workflows/runs/missing", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "run_not_found", errResp.Error)
}

func TestAwaitRunNotFound(t *testing.T) {
	e := newTestAPI("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/runs/missing/await", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKeyEndpoints(t *testing.T) {
	e := newTestAPI("")

	// Create
	body := `{"owner": "user-1", "name": "n8n-prod", "value": "sk-secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/keys", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-secret")

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	keyID, _ := data["id"].(string)
	require.NotEmpty(t, keyID)

	// Fetch by ID
	req = httptest.NewRequest(http.MethodGet, "/api/v1/keys/"+keyID, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-secret")
	envelope = decodeEnvelope(t, rec)
	data, ok = envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, keyID, data["id"])

	// Unknown ID reports not found
	req = httptest.NewRequest(http.MethodGet, "/api/v1/keys/no-such-key", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// List filtered by owner
	req = httptest.NewRequest(http.MethodGet, "/api/v1/keys?owner=user-1", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	keys, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, keys, 1)

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/keys/"+keyID, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Deleting again reports not found
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/keys/"+keyID, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateKeyMissingFields(t *testing.T) {
	e := newTestAPI("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/keys", strings.NewReader(`{"owner": "user-1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "missing_fields", errResp.Error)
}
