package mmodel

import (
	"github.com/shopspring/decimal"
)

// CostModel declares how a tool invocation is priced.
type CostModel struct {
	// Kind is one of constant.CostStatic, CostPerUnit, CostPerBackendSecond.
	Kind string `json:"kind" yaml:"kind"`

	// AmountUSD is the flat price of a static-cost tool.
	AmountUSD decimal.Decimal `json:"amount_usd,omitempty" yaml:"amount_usd"`

	// UnitRateUSD is the per-unit rate of a per-unit tool.
	UnitRateUSD decimal.Decimal `json:"unit_rate_usd,omitempty" yaml:"unit_rate_usd"`

	// UnitField names the numeric input that carries the unit count (e.g. "count").
	UnitField string `json:"unit_field,omitempty" yaml:"unit_field"`

	// TierField names the input whose value selects a tier multiplier (e.g. "size").
	TierField string `json:"tier_field,omitempty" yaml:"tier_field"`

	// TierMultipliers maps tier values to their multiplier.
	TierMultipliers map[string]float64 `json:"tier_multipliers,omitempty" yaml:"tier_multipliers"`

	// HardwareClass keys the per-GPU-second rate table for per-backend-second tools.
	HardwareClass string `json:"hardware_class,omitempty" yaml:"hardware_class"`

	// BaselineRuntimeSeconds seeds the runtime average before usage stats exist.
	BaselineRuntimeSeconds float64 `json:"baseline_runtime_seconds,omitempty" yaml:"baseline_runtime_seconds"`

	// Tolerance bounds how far the charged amount may exceed the quote (fraction).
	Tolerance float64 `json:"tolerance,omitempty" yaml:"tolerance"`
}

// Tool is an immutable executable tool definition. A reload replaces the whole
// definition; instances are never mutated in place.
type Tool struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Visibility  string `json:"visibility" yaml:"visibility"`

	// DeliveryMode is one of constant.ModeImmediate, ModeWebhook, ModePoll.
	DeliveryMode string `json:"delivery_mode" yaml:"delivery_mode"`

	// InputSchema and OutputSchema are JSON-schema documents.
	InputSchema  map[string]any `json:"input_schema" yaml:"input_schema"`
	OutputSchema map[string]any `json:"output_schema,omitempty" yaml:"output_schema"`

	// AdditionalInputs opts the tool into accepting fields its schema doesn't declare.
	AdditionalInputs bool `json:"additional_inputs,omitempty" yaml:"additional_inputs"`

	Cost CostModel `json:"cost" yaml:"cost"`

	// Backend names the upstream service binding; Endpoint the route or workflow on it.
	Backend  string `json:"backend" yaml:"backend"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Command is the chat platform command name. Derived from Name when empty.
	Command string `json:"command,omitempty" yaml:"command"`

	// PlatformHints carries per-platform description variants, truncated at load time
	// to each platform's display limit.
	PlatformHints map[string]string `json:"platform_hints,omitempty" yaml:"platform_hints"`

	// SoftTimeoutSeconds bounds the poll schedule; HardTimeoutSeconds fails the
	// generation with backend_timeout.
	SoftTimeoutSeconds int64 `json:"soft_timeout_seconds,omitempty" yaml:"soft_timeout_seconds"`
	HardTimeoutSeconds int64 `json:"hard_timeout_seconds,omitempty" yaml:"hard_timeout_seconds"`

	// EmptyOutputOK treats a successful backend status with no outputs as completed
	// with an empty output slot instead of failing with BACKEND_ERROR.
	EmptyOutputOK bool `json:"empty_output_ok,omitempty" yaml:"empty_output_ok"`
}

// PublicTool is the discovery projection returned by the tools API.
type PublicTool struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	DeliveryMode string         `json:"delivery_mode"`
	Command      string         `json:"command,omitempty"`
	InputSchema  map[string]any `json:"input_schema"`
	CostKind     string         `json:"cost_kind"`
}

// ToPublic projects the tool to its discovery shape.
func (t *Tool) ToPublic() PublicTool {
	return PublicTool{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Category:     t.Category,
		DeliveryMode: t.DeliveryMode,
		Command:      t.Command,
		InputSchema:  t.InputSchema,
		CostKind:     t.Cost.Kind,
	}
}

// ToolUsage aggregates per-tool invocation accounting. The rolling runtime average
// feeds the per-backend-second cost model.
type ToolUsage struct {
	ToolID            string  `json:"toolId"`
	Invocations       int64   `json:"invocations"`
	AvgRuntimeSeconds float64 `json:"avgRuntimeSeconds"`
}
