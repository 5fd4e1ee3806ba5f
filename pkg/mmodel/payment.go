package mmodel

import (
	"time"

	"github.com/google/uuid"
)

// PaymentRequirements is the 402 response body telling the client what to pay.
type PaymentRequirements struct {
	Receiver     string `json:"receiver"`
	AmountAtomic string `json:"amount_atomic"`
	Currency     string `json:"currency"`
	Chain        string `json:"chain"`
}

// PaymentAuthorization is the settled record of a verified one-shot payment. The
// signature hash is unique: a payment authorizes exactly one generation.
type PaymentAuthorization struct {
	SignatureHash string    `json:"signatureHash"`
	GenerationID  uuid.UUID `json:"generationId"`
	PayerAddress  string    `json:"payerAddress"`
	AmountAtomic  string    `json:"amountAtomic"`
	Asset         string    `json:"asset"`
	Chain         string    `json:"chain"`
	CreatedAt     time.Time `json:"createdAt"`
}

// VerifiedPayment is what the facilitator returns on a successful verification.
type VerifiedPayment struct {
	PayerAddress string `json:"payer_address"`
	AmountAtomic string `json:"amount_atomic"`
	Asset        string `json:"asset"`
	Chain        string `json:"chain"`
}
