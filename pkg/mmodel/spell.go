package mmodel

import (
	"time"

	"github.com/google/uuid"
)

// Binding kinds.
const (
	BindingLiteral    = "literal"
	BindingParameter  = "parameter"
	BindingStepOutput = "step_output"
)

// Binding maps one step input to a literal value, a spell-level parameter, or a
// named output of an earlier step.
type Binding struct {
	Kind string `json:"kind" bson:"kind"`

	// Value is the literal payload when Kind is literal.
	Value any `json:"value,omitempty" bson:"value,omitempty"`

	// Parameter names the exposed spell parameter when Kind is parameter.
	Parameter string `json:"parameter,omitempty" bson:"parameter,omitempty"`

	// Step and Output address a prior step's output by declared name, never by
	// array position.
	Step   int    `json:"step,omitempty" bson:"step,omitempty"`
	Output string `json:"output,omitempty" bson:"output,omitempty"`
}

// SpellStep is one tool invocation inside a spell.
type SpellStep struct {
	ToolID   string             `json:"tool_id" bson:"tool_id"`
	Bindings map[string]Binding `json:"bindings" bson:"bindings"`

	// Rename declares the input-field migration applied when the tool's schema
	// advanced since the spell was published.
	Rename map[string]string `json:"rename,omitempty" bson:"rename,omitempty"`
}

// Spell is a stored multi-step graph. Published spells are immutable by id+version.
type Spell struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	Slug        string    `json:"slug" bson:"slug"`
	Version     int       `json:"version" bson:"version"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id" bson:"owner_id"`
	Published   bool      `json:"published" bson:"published"`

	// Parameters is the JSON-schema of the spell's exposed inputs.
	Parameters map[string]any `json:"parameters" bson:"parameters"`

	Steps []SpellStep `json:"steps" bson:"steps"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SpellCast is one execution of a spell definition.
type SpellCast struct {
	ID           uuid.UUID      `json:"cast_id"`
	SpellID      uuid.UUID      `json:"spell_id"`
	SpellVersion int            `json:"spell_version"`
	UserID       uuid.UUID      `json:"user_id"`
	Parameters   map[string]any `json:"parameters"`

	// GenerationIDs grows append-only, one per dispatched step.
	GenerationIDs []uuid.UUID `json:"generation_ids"`

	Status string `json:"status"`

	FinalGenerationID *uuid.UUID `json:"final_generation_id,omitempty"`

	// AccumulatedCredits sums the charged cost of completed steps.
	AccumulatedCredits int64 `json:"accumulated_credits"`

	// ContinuedStep is the highest step index whose completed continuation was
	// consumed, -1 before step 0. Continuation signals arrive at least once (the
	// engine notifies immediate steps directly and the dispatcher replays the
	// terminal event); the guarded advance of this field collapses them to
	// exactly one processed continuation per step.
	ContinuedStep int `json:"-"`

	// FailedStep points at the step whose generation failed the cast.
	FailedStep *int             `json:"failed_step,omitempty"`
	Error      *GenerationError `json:"error,omitempty"`

	Delivery DeliveryIntent `json:"delivery"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Version int64 `json:"-"`
}

// CastProjection is the API shape of a spell cast.
type CastProjection struct {
	ID            uuid.UUID        `json:"cast_id"`
	SpellID       uuid.UUID        `json:"spell_id"`
	SpellVersion  int              `json:"spell_version"`
	Status        string           `json:"status"`
	GenerationIDs []uuid.UUID      `json:"generation_ids"`
	FailedStep    *int             `json:"failed_step,omitempty"`
	Error         *GenerationError `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToProjection projects the cast to its API shape.
func (sc *SpellCast) ToProjection() CastProjection {
	return CastProjection{
		ID:            sc.ID,
		SpellID:       sc.SpellID,
		SpellVersion:  sc.SpellVersion,
		Status:        sc.Status,
		GenerationIDs: sc.GenerationIDs,
		FailedStep:    sc.FailedStep,
		Error:         sc.Error,
		CreatedAt:     sc.CreatedAt,
		UpdatedAt:     sc.UpdatedAt,
	}
}
