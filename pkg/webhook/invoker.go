// Package webhook provides the core client for workflow webhook endpoints.
//
// An Invoker forwards a JSON or multipart payload to a webhook URL and
// normalizes the outcome into a Result envelope. A Poller repeatedly checks
// a job status endpoint until a terminal status is observed or the attempt
// budget runs out. Configuration, transport, and workflow-reported failures
// all surface through the same envelope so callers need one code path.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Invoker posts payloads to a workflow webhook endpoint.
type Invoker struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Invoker) {
		i.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(i *Invoker) {
		i.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets a custom user agent.
func WithUserAgent(userAgent string) Option {
	return func(i *Invoker) {
		i.userAgent = userAgent
	}
}

// NewInvoker creates an invoker with a default webhook endpoint. The
// endpoint may be empty; it is validated lazily at invocation time so a
// missing configuration degrades into a reported envelope error rather
// than a startup crash.
func NewInvoker(endpoint string, opts ...Option) *Invoker {
	i := &Invoker{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		userAgent: "flowgate-webhook/1.0",
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Endpoint returns the configured default endpoint, which may be empty.
func (i *Invoker) Endpoint() string {
	return i.endpoint
}

// Invoke posts payload as a JSON body to the default endpoint.
func (i *Invoker) Invoke(ctx context.Context, payload interface{}) Result {
	return i.InvokeTo(ctx, i.endpoint, payload)
}

// InvokeTo posts payload as a JSON body to an explicit endpoint,
// overriding the configured default.
func (i *Invoker) InvokeTo(ctx context.Context, endpoint string, payload interface{}) Result {
	if endpoint == "" {
		return Fail("no webhook endpoint configured: set a default endpoint or pass one explicitly")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Fail("encoding webhook payload: %v", err)
	}

	return i.post(ctx, endpoint, "application/json", bytes.NewReader(body))
}

// InvokeForm posts a multipart form to the default endpoint.
func (i *Invoker) InvokeForm(ctx context.Context, form *Form) Result {
	return i.InvokeFormTo(ctx, i.endpoint, form)
}

// InvokeFormTo posts a multipart form to an explicit endpoint. The body is
// sent exactly as built; the content type is the form's own multipart type,
// never application/json.
func (i *Invoker) InvokeFormTo(ctx context.Context, endpoint string, form *Form) Result {
	if endpoint == "" {
		return Fail("no webhook endpoint configured: set a default endpoint or pass one explicitly")
	}
	if form == nil {
		return Fail("no form payload provided")
	}

	body, contentType, err := form.Encode()
	if err != nil {
		return Fail("encoding form payload: %v", err)
	}

	return i.post(ctx, endpoint, contentType, body)
}

// post issues exactly one POST and folds every failure mode into the
// envelope. No retries, no caching.
func (i *Invoker) post(ctx context.Context, endpoint, contentType string, body *bytes.Reader) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Fail("creating webhook request: %v", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", i.userAgent)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return Fail("calling webhook: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Fail("webhook returned status %d", resp.StatusCode)
	}

	var data interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Fail("decoding webhook response: %v", err)
	}

	return OK(data)
}
