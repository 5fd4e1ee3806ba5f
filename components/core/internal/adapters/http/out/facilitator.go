package out

import (
	"context"
	"net/http"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
)

// FacilitatorClient provides an interface for the external payment verifier. The
// core never verifies payment cryptography itself; it delegates to the facilitator.
//
//go:generate mockgen --destination=facilitator.mock.go --package=out . FacilitatorClient
type FacilitatorClient interface {
	// Verify checks the signed payment authorization against the requirements and
	// returns the verified payment details, or an UNAUTHORIZED error.
	Verify(ctx context.Context, paymentHeader string, requirements mmodel.PaymentRequirements) (*mmodel.VerifiedPayment, error)
}

// HTTPFacilitatorClient is the HTTP implementation of FacilitatorClient.
type HTTPFacilitatorClient struct {
	httpBackend
}

// NewFacilitatorClient returns a facilitator client.
func NewFacilitatorClient(baseURL string, timeout time.Duration) *HTTPFacilitatorClient {
	return &HTTPFacilitatorClient{
		httpBackend: newHTTPBackend(baseURL, "", timeout),
	}
}

type verifyRequest struct {
	Payment      string                      `json:"payment"`
	Requirements mmodel.PaymentRequirements `json:"requirements"`
}

type verifyResponse struct {
	Valid   bool                    `json:"valid"`
	Reason  string                  `json:"reason,omitempty"`
	Payment *mmodel.VerifiedPayment `json:"payment,omitempty"`
}

// Verify checks the signed payment authorization against the requirements.
func (c *HTTPFacilitatorClient) Verify(ctx context.Context, paymentHeader string, requirements mmodel.PaymentRequirements) (*mmodel.VerifiedPayment, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "facilitator.verify")
	defer span.End()

	var resp verifyResponse

	err := c.doJSON(ctx, http.MethodPost, "/verify", verifyRequest{
		Payment:      paymentHeader,
		Requirements: requirements,
	}, &resp)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to verify payment", err)

		return nil, err
	}

	if !resp.Valid || resp.Payment == nil {
		return nil, pkg.ValidateBusinessError(cn.ErrInvalidSignature, "Payment")
	}

	return resp.Payment, nil
}
