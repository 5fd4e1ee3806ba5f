package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// Backend job states reported by upstream services.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobStatus is the normalized answer of a backend status poll.
type JobStatus struct {
	State   string          `json:"state"`
	Outputs []mmodel.Output `json:"outputs,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// BackendClient provides an interface for one upstream AI backend. Every call is
// bounded by the context deadline derived from the tool's declared timeout.
//
//go:generate mockgen --destination=backend.mock.go --package=out . BackendClient
type BackendClient interface {
	// Invoke runs an immediate tool synchronously and returns its outputs.
	Invoke(ctx context.Context, tool *mmodel.Tool, inputs map[string]any) ([]mmodel.Output, error)

	// Submit enqueues a webhook/poll job and returns the backend's job id.
	Submit(ctx context.Context, tool *mmodel.Tool, inputs map[string]any, callbackURL string) (string, error)

	// Status polls a submitted job.
	Status(ctx context.Context, jobID string) (*JobStatus, error)

	// Result fetches the full outputs of a finished job.
	Result(ctx context.Context, jobID string) ([]mmodel.Output, error)

	// Cancel asks the backend to stop a job, best-effort.
	Cancel(ctx context.Context, jobID string) error
}

// httpBackend carries what every concrete backend client shares: base URL, auth
// key and a pooled http client.
type httpBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newHTTPBackend(baseURL, apiKey string, timeout time.Duration) httpBackend {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return httpBackend{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// doJSON issues one JSON request and decodes the answer into out. Upstream failures
// are classified into the error taxonomy at this boundary: timeouts surface as
// BACKEND_TIMEOUT, HTTP errors as BACKEND_ERROR.
func (b *httpBackend) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return pkg.ValidateBusinessError(cn.ErrBackendTimeout, "Backend")
		}

		return pkg.UpstreamError{
			Code:      cn.ErrBackendError.Error(),
			Title:     "Backend Error",
			Message:   fmt.Sprintf("request to backend failed: %v", err),
			Transient: true,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return pkg.UpstreamError{
			Code:      cn.ErrBackendError.Error(),
			Title:     "Backend Error",
			Message:   fmt.Sprintf("backend answered %d on %s %s", resp.StatusCode, method, path),
			Transient: true,
		}
	}

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return pkg.UpstreamError{
			Code:    cn.ErrBackendError.Error(),
			Title:   "Backend Error",
			Message: fmt.Sprintf("backend refused %s %s: %s", method, path, string(raw)),
		}
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// IsRetriableBackendError reports whether err is a transient upstream failure worth
// another attempt: connection failures and 5xx answers, never 4xx refusals.
func IsRetriableBackendError(err error) bool {
	upstream, ok := err.(pkg.UpstreamError)
	if !ok {
		return false
	}

	return upstream.Transient && !upstream.Timeout
}
