package out

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
)

// WebhookSender provides an interface for delivering one signed webhook POST. The
// retry schedule lives in the dispatcher, not here.
//
//go:generate mockgen --destination=webhook.mock.go --package=out . WebhookSender
type WebhookSender interface {
	// Deliver POSTs body to url with the signature mirrored in the
	// X-Webhook-Signature header. Transient failures surface as retriable
	// UpstreamError; 4xx answers as terminal ones.
	Deliver(ctx context.Context, url string, body []byte, signature string) error
}

// HTTPWebhookSender is the net/http implementation of WebhookSender.
type HTTPWebhookSender struct {
	client *http.Client
}

// NewWebhookSender returns a webhook sender with the given per-attempt timeout.
func NewWebhookSender(timeout time.Duration) *HTTPWebhookSender {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &HTTPWebhookSender{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver POSTs body to url with the signature header.
func (s *HTTPWebhookSender) Deliver(ctx context.Context, url string, body []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if signature != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+signature)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return pkg.UpstreamError{
			Code:      cn.ErrBackendError.Error(),
			Title:     "Webhook Delivery Error",
			Message:   fmt.Sprintf("webhook POST to %s failed: %v", url, err),
			Transient: true,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 500 {
		return pkg.UpstreamError{
			Code:      cn.ErrBackendError.Error(),
			Title:     "Webhook Delivery Error",
			Message:   fmt.Sprintf("webhook receiver answered %d", resp.StatusCode),
			Transient: true,
		}
	}

	if resp.StatusCode >= 400 {
		return pkg.UpstreamError{
			Code:    cn.ErrBackendError.Error(),
			Title:   "Webhook Delivery Error",
			Message: fmt.Sprintf("webhook receiver refused with %d", resp.StatusCode),
		}
	}

	return nil
}
