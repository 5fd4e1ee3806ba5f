package constant

import "fmt"

// Generation lifecycle statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Delivery strategies: how a generation's terminal event is routed.
const (
	DeliveryDirect     = "direct"
	DeliverySpellStep  = "spell_step"
	DeliverySpellFinal = "spell_final"
	DeliveryWebhook    = "webhook"
	DeliveryX402       = "x402"
)

// Tool delivery modes.
const (
	ModeImmediate = "immediate"
	ModeWebhook   = "webhook"
	ModePoll      = "poll"
)

// Cost model kinds.
const (
	CostStatic           = "static"
	CostPerUnit          = "per_unit"
	CostPerBackendSecond = "per_backend_second"
)

// Ledger entry reason tags.
const (
	ReasonDeposit = "deposit"
	ReasonDebit   = "debit"
	ReasonRefund  = "refund"
	ReasonAdjust  = "adjust"
)

// Reserve states.
const (
	ReserveHeld      = "reserved"
	ReserveCommitted = "committed"
	ReserveReleased  = "released"
)

// Deposit record states.
const (
	DepositSeen      = "seen"
	DepositConfirmed = "confirmed"
	DepositCredited  = "credited"
	DepositRejected  = "rejected"
)

// Spell cast statuses.
const (
	CastRunning   = "running"
	CastCompleted = "completed"
	CastFailed    = "failed"
	CastCancelled = "cancelled"
)

// Delivery outcome recorded on the generation, orthogonal to its status.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "delivery_failed"
)

// Failure reasons recorded on the generation error field.
const (
	ReasonInsufficientCredits = "insufficient_credits"
	ReasonBackendTimeout      = "backend_timeout"
	ReasonBackendError        = "backend_error"
	ReasonCancelled           = "cancelled"
	ReasonBindingUnresolved   = "binding_unresolved"
	ReasonBudgetExceeded      = "budget_exceeded"
)

// Terminal event names on the outbound wire.
const (
	EventGenerationCompleted = "generation.completed"
	EventGenerationFailed    = "generation.failed"
	EventSpellCompleted      = "spell.completed"
	EventSpellFailed         = "spell.failed"
)

// Sort directions for cursor pagination.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

var generationTransitions = map[string][]string{
	StatusQueued:    {StatusRunning, StatusCompleted, StatusFailed, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

var depositTransitions = map[string][]string{
	DepositSeen:      {DepositConfirmed, DepositRejected},
	DepositConfirmed: {DepositCredited, DepositRejected},
	DepositCredited:  {},
	DepositRejected:  {},
}

// TerminalStatuses are the generation statuses no transition may leave.
var TerminalStatuses = []string{StatusCompleted, StatusFailed, StatusCancelled}

// IsTerminalStatus reports whether s is a terminal generation status.
func IsTerminalStatus(s string) bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}

	return false
}

// ValidStatusTransition reports whether from -> to is a legal generation transition.
func ValidStatusTransition(from, to string) bool {
	next, ok := generationTransitions[from]
	if !ok {
		return false
	}

	for _, s := range next {
		if s == to {
			return true
		}
	}

	return false
}

// AssertValidStatusCode panics when code is not a known generation status.
// Used at package boundaries where an unknown status means a programming error.
func AssertValidStatusCode(code string) {
	if _, ok := generationTransitions[code]; !ok {
		panic(fmt.Sprintf("unknown generation status code: %s", code))
	}
}

// AssertValidStatusTransition panics on an illegal generation status transition.
func AssertValidStatusTransition(from, to string) {
	AssertValidStatusCode(from)
	AssertValidStatusCode(to)

	if !ValidStatusTransition(from, to) {
		panic(fmt.Sprintf("illegal generation status transition: %s -> %s", from, to))
	}
}

// ValidDepositTransition reports whether from -> to is a legal deposit state transition.
func ValidDepositTransition(from, to string) bool {
	next, ok := depositTransitions[from]
	if !ok {
		return false
	}

	for _, s := range next {
		if s == to {
			return true
		}
	}

	return false
}
