package constant

import "errors"

// Business error sentinels. The Error() string of each sentinel is the stable,
// client-visible error code carried in the HTTP envelope.
var (
	ErrUnauthorized           = errors.New("UNAUTHORIZED")
	ErrForbidden              = errors.New("FORBIDDEN")
	ErrRateLimited            = errors.New("RATE_LIMITED")
	ErrBadRequest             = errors.New("BAD_REQUEST")
	ErrUnexpectedFields       = errors.New("BAD_REQUEST")
	ErrEntityNotFound         = errors.New("NOT_FOUND")
	ErrInsufficientCredits    = errors.New("INSUFFICIENT_CREDITS")
	ErrPaymentRequired        = errors.New("PAYMENT_REQUIRED")
	ErrPaymentAlreadyUsed     = errors.New("PAYMENT_ALREADY_USED")
	ErrBackendTimeout         = errors.New("BACKEND_TIMEOUT")
	ErrBackendError           = errors.New("BACKEND_ERROR")
	ErrCancelled              = errors.New("CANCELLED")
	ErrInternalServer         = errors.New("INTERNAL")
	ErrInvalidWebhookURL      = errors.New("BAD_REQUEST")
	ErrInvalidToolInput       = errors.New("BAD_REQUEST")
	ErrSpellBindingUnresolved = errors.New("BAD_REQUEST")
	ErrSpellNotPublished      = errors.New("BAD_REQUEST")
	ErrQuoteToleranceExceeded = errors.New("INSUFFICIENT_CREDITS")
	ErrAdmissionRefused       = errors.New("RATE_LIMITED")
	ErrRateLimitUnavailable   = errors.New("RATE_LIMITED")
	ErrDuplicateIdempotency   = errors.New("BAD_REQUEST")
	ErrWalletAlreadyLinked    = errors.New("BAD_REQUEST")
	ErrInvalidSignature       = errors.New("UNAUTHORIZED")
	ErrAlreadyTerminal        = errors.New("BAD_REQUEST")
)
