package out

import (
	"context"
	"net/http"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
)

// ComfyClient talks to the remote GPU workflow service. Tools bound to this backend
// name the workflow to run in their Endpoint field.
type ComfyClient struct {
	httpBackend
}

// NewComfyClient returns a workflow backend client.
func NewComfyClient(baseURL, apiKey string, timeout time.Duration) *ComfyClient {
	return &ComfyClient{
		httpBackend: newHTTPBackend(baseURL, apiKey, timeout),
	}
}

type comfyRunRequest struct {
	Workflow   string         `json:"workflow"`
	Inputs     map[string]any `json:"inputs"`
	WebhookURL string         `json:"webhook_url,omitempty"`
}

type comfyRunResponse struct {
	RunID   string          `json:"run_id"`
	Status  string          `json:"status"`
	Outputs []mmodel.Output `json:"outputs,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Invoke runs an immediate workflow synchronously and returns its outputs.
func (c *ComfyClient) Invoke(ctx context.Context, tool *mmodel.Tool, inputs map[string]any) ([]mmodel.Output, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "backend.comfy.invoke")
	defer span.End()

	var resp comfyRunResponse

	err := c.doJSON(ctx, http.MethodPost, "/v1/workflows/"+tool.Endpoint+"/run", comfyRunRequest{
		Workflow: tool.Endpoint,
		Inputs:   inputs,
	}, &resp)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to invoke workflow", err)

		return nil, err
	}

	return resp.Outputs, nil
}

// Submit enqueues a workflow job and returns the backend's run id.
func (c *ComfyClient) Submit(ctx context.Context, tool *mmodel.Tool, inputs map[string]any, callbackURL string) (string, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "backend.comfy.submit")
	defer span.End()

	var resp comfyRunResponse

	err := c.doJSON(ctx, http.MethodPost, "/v1/workflows/"+tool.Endpoint+"/submit", comfyRunRequest{
		Workflow:   tool.Endpoint,
		Inputs:     inputs,
		WebhookURL: callbackURL,
	}, &resp)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to submit workflow", err)

		return "", err
	}

	return resp.RunID, nil
}

// Status polls a submitted run.
func (c *ComfyClient) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	var resp comfyRunResponse

	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/"+jobID, nil, &resp); err != nil {
		return nil, err
	}

	return &JobStatus{
		State:   normalizeComfyState(resp.Status),
		Outputs: resp.Outputs,
		Error:   resp.Error,
	}, nil
}

// Result fetches the full outputs of a finished run.
func (c *ComfyClient) Result(ctx context.Context, jobID string) ([]mmodel.Output, error) {
	var resp comfyRunResponse

	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/"+jobID+"/result", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Outputs, nil
}

// Cancel asks the backend to stop a run, best-effort.
func (c *ComfyClient) Cancel(ctx context.Context, jobID string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/runs/"+jobID+"/cancel", nil, nil)
}

// ListWorkflows fetches the remote workflow catalog for the tool registry.
func (c *ComfyClient) ListWorkflows(ctx context.Context) ([]*mmodel.Tool, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "backend.comfy.list_workflows")
	defer span.End()

	var resp struct {
		Workflows []*mmodel.Tool `json:"workflows"`
	}

	if err := c.doJSON(ctx, http.MethodGet, "/v1/workflows", nil, &resp); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list workflows", err)

		return nil, err
	}

	return resp.Workflows, nil
}

func normalizeComfyState(state string) string {
	switch state {
	case "queued", "pending":
		return JobPending
	case "running", "in_progress":
		return JobRunning
	case "success", "completed":
		return JobCompleted
	default:
		return JobFailed
	}
}
