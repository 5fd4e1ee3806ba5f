package out

import (
	"context"
	"net/http"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
)

// LLMClient talks to a chat-completion style API. LLM tools are always immediate:
// Submit, Status, Result and Cancel are unsupported.
type LLMClient struct {
	httpBackend
}

// NewLLMClient returns an LLM backend client.
func NewLLMClient(baseURL, apiKey string, timeout time.Duration) *LLMClient {
	return &LLMClient{
		httpBackend: newHTTPBackend(baseURL, apiKey, timeout),
	}
}

type llmRequest struct {
	Model  string         `json:"model"`
	Inputs map[string]any `json:"inputs"`
}

type llmResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Invoke runs the completion synchronously and wraps the answer as a text output.
func (c *LLMClient) Invoke(ctx context.Context, tool *mmodel.Tool, inputs map[string]any) ([]mmodel.Output, error) {
	var resp llmResponse

	err := c.doJSON(ctx, http.MethodPost, "/v1/complete", llmRequest{
		Model:  tool.Endpoint,
		Inputs: inputs,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return []mmodel.Output{
		{
			Name: "text",
			Type: "text",
			Data: map[string]any{"text": resp.Text, "model": resp.Model},
		},
	}, nil
}

// Submit is unsupported: LLM tools are immediate.
func (c *LLMClient) Submit(ctx context.Context, tool *mmodel.Tool, inputs map[string]any, callbackURL string) (string, error) {
	return "", pkg.ValidateBusinessError(cn.ErrBackendError, "LLM")
}

// Status is unsupported: LLM tools are immediate.
func (c *LLMClient) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	return nil, pkg.ValidateBusinessError(cn.ErrBackendError, "LLM")
}

// Result is unsupported: LLM tools are immediate.
func (c *LLMClient) Result(ctx context.Context, jobID string) ([]mmodel.Output, error) {
	return nil, pkg.ValidateBusinessError(cn.ErrBackendError, "LLM")
}

// Cancel is a no-op: there is nothing in flight to cancel.
func (c *LLMClient) Cancel(ctx context.Context, jobID string) error {
	return nil
}
