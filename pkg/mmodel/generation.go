package mmodel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Output is one artifact produced by a generation.
type Output struct {
	Name string         `json:"name,omitempty"`
	Type string         `json:"type,omitempty"`
	URL  string         `json:"url,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// GenerationError is the classified failure recorded on a generation.
type GenerationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Cost carries the quoted and charged amounts of a generation.
type Cost struct {
	QuotedUSD      decimal.Decimal `json:"quotedUsd"`
	QuotedCredits  int64           `json:"quotedCredits"`
	ChargedCredits *int64          `json:"chargedCredits,omitempty"`
}

// DeliveryIntent describes where a generation's terminal event must be delivered.
type DeliveryIntent struct {
	Strategy      string  `json:"strategy"`
	Platform      string  `json:"platform,omitempty"`
	Target        string  `json:"target,omitempty"`
	ReplyTo       string  `json:"replyTo,omitempty"`
	WebhookURL    *string `json:"webhookUrl,omitempty"`
	WebhookSecret *string `json:"webhookSecret,omitempty"`
}

// Generation is the atomic unit of work: one invocation of one tool, a unit of
// settlement and delivery.
type Generation struct {
	ID             uuid.UUID      `json:"id"`
	IdempotencyKey *string        `json:"idempotencyKey,omitempty"`
	UserID         uuid.UUID      `json:"userId"`
	ToolID         string         `json:"toolId"`
	Inputs         map[string]any `json:"inputs"`
	Status         string         `json:"status"`

	Delivery DeliveryIntent `json:"delivery"`

	Cost Cost `json:"cost"`

	// BackendMode snapshots the tool's delivery mode at execution time so sweepers
	// never re-resolve the tool.
	BackendMode  string           `json:"backendMode"`
	BackendJobID *string          `json:"backendJobId,omitempty"`
	Outputs      []Output         `json:"outputs,omitempty"`
	Error        *GenerationError `json:"error,omitempty"`

	PollAttempts int        `json:"pollAttempts,omitempty"`
	LastPolledAt *time.Time `json:"lastPolledAt,omitempty"`

	ParentCastID *uuid.UUID `json:"parentCastId,omitempty"`
	StepIndex    *int       `json:"stepIndex,omitempty"`

	DeliveryOutcome  string `json:"deliveryOutcome"`
	DeliveryAttempts int    `json:"deliveryAttempts"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Version supports optimistic concurrency on updates.
	Version int64 `json:"-"`
}

// RuntimeSeconds returns the observed backend runtime, zero when not yet terminal.
func (g *Generation) RuntimeSeconds() float64 {
	if g.StartedAt == nil || g.CompletedAt == nil {
		return 0
	}

	return g.CompletedAt.Sub(*g.StartedAt).Seconds()
}

// GenerationProjection is the API shape of a generation record.
type GenerationProjection struct {
	ID              uuid.UUID        `json:"generation_id"`
	Status          string           `json:"status"`
	ToolID          string           `json:"tool_id"`
	Outputs         []Output         `json:"outputs,omitempty"`
	Error           *GenerationError `json:"error,omitempty"`
	CostUSD         decimal.Decimal  `json:"cost_usd"`
	DeliveryOutcome string           `json:"delivery_outcome,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CheckAfterMs    int64            `json:"check_after_ms,omitempty"`
}

// ToProjection projects the generation to its API shape.
func (g *Generation) ToProjection() GenerationProjection {
	return GenerationProjection{
		ID:              g.ID,
		Status:          g.Status,
		ToolID:          g.ToolID,
		Outputs:         g.Outputs,
		Error:           g.Error,
		CostUSD:         g.Cost.QuotedUSD,
		DeliveryOutcome: g.DeliveryOutcome,
		CreatedAt:       g.CreatedAt,
		CompletedAt:     g.CompletedAt,
	}
}

// TerminalOutcome is what a backend invocation resolved to. It feeds the single
// settlement path exactly once per generation.
type TerminalOutcome struct {
	Status         string
	Outputs        []Output
	Error          *GenerationError
	ChargedCredits int64
	RuntimeSeconds float64
}
