package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// StatusClass is the poller's view of a remote status value.
type StatusClass int

const (
	// StatusPending means the workflow is still processing.
	StatusPending StatusClass = iota
	// StatusSucceeded means the workflow finished successfully.
	StatusSucceeded
	// StatusFailed means the workflow finished with an error.
	StatusFailed
)

// Classifier maps a remote status string onto a StatusClass. Different
// workflow backends use different vocabularies, so the mapping is a
// pluggable predicate rather than a fixed set.
type Classifier func(status string) StatusClass

// DefaultClassifier treats "completed" and "success" as terminal success,
// "failed" and "error" as terminal failure, and anything else as pending.
func DefaultClassifier(status string) StatusClass {
	switch status {
	case "completed", "success":
		return StatusSucceeded
	case "failed", "error":
		return StatusFailed
	default:
		return StatusPending
	}
}

const (
	// DefaultPollInterval is the pause between status checks.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxAttempts is the attempt budget before a poll times out.
	DefaultMaxAttempts = 30
)

// Poller repeatedly queries a job status endpoint until a terminal status
// is observed or the attempt budget is exhausted.
type Poller struct {
	httpClient  *http.Client
	endpoint    string
	interval    time.Duration
	maxAttempts int
	classify    Classifier
	userAgent   string
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollHTTPClient sets a custom HTTP client.
func WithPollHTTPClient(client *http.Client) PollerOption {
	return func(p *Poller) {
		p.httpClient = client
	}
}

// WithInterval sets the pause between attempts.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = interval
	}
}

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(attempts int) PollerOption {
	return func(p *Poller) {
		p.maxAttempts = attempts
	}
}

// WithClassifier sets the status vocabulary predicate.
func WithClassifier(classify Classifier) PollerOption {
	return func(p *Poller) {
		p.classify = classify
	}
}

// WithPollUserAgent sets a custom user agent.
func WithPollUserAgent(userAgent string) PollerOption {
	return func(p *Poller) {
		p.userAgent = userAgent
	}
}

// NewPoller creates a poller for a status endpoint. The endpoint may be
// empty; like the invoker it is validated at poll time.
func NewPoller(endpoint string, opts ...PollerOption) *Poller {
	p := &Poller{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
		classify:    DefaultClassifier,
		userAgent:   "flowgate-webhook/1.0",
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Poll issues GET {endpoint}/{jobID} up to the attempt budget, pausing one
// interval between attempts. A transport error or non-2xx response inside
// any single attempt terminates the whole poll immediately; there is no
// per-attempt retry. Context cancellation ends the poll with a failure
// envelope.
func (p *Poller) Poll(ctx context.Context, jobID string) Result {
	if p.endpoint == "" {
		return Fail("no status endpoint configured")
	}
	if jobID == "" {
		return Fail("no job identifier provided")
	}

	statusURL, err := p.statusURL(jobID)
	if err != nil {
		return Fail("building status URL: %v", err)
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		body, res := p.check(ctx, statusURL)
		if !res.Success {
			return res
		}

		status, _ := body["status"].(string)
		switch p.classify(status) {
		case StatusSucceeded:
			return OK(body)
		case StatusFailed:
			if msg, ok := body["error"].(string); ok && msg != "" {
				return Fail("%s", msg)
			}
			return Fail("workflow reported status %q", status)
		}

		// Still pending. Wait out the interval unless the budget or the
		// caller's context runs out first.
		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-time.After(p.interval):
		case <-ctx.Done():
			return Fail("polling cancelled: %v", ctx.Err())
		}
	}

	return Fail("polling timed out after %d attempts", p.maxAttempts)
}

// check performs a single status request. The returned Result is a
// success envelope only when a JSON body was obtained; the body itself is
// returned separately so the caller can classify it.
func (p *Poller) check(ctx context.Context, statusURL string) (map[string]interface{}, Result) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, Fail("creating status request: %v", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, Fail("checking status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, Fail("status check returned status %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, Fail("decoding status response: %v", err)
	}

	return body, Result{Success: true}
}

func (p *Poller) statusURL(jobID string) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing status endpoint: %w", err)
	}
	u.Path = path.Join(u.Path, jobID)
	return u.String(), nil
}
