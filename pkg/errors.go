package pkg

import (
	"errors"
	"fmt"
	"strings"

	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
)

// EntityNotFoundError records an error indicating an entity was not found.
// You can use it to represent a database not found, cache not found or any other repository miss.
type EntityNotFoundError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// NewEntityNotFoundError creates an instance of EntityNotFoundError.
func NewEntityNotFoundError(entityType string) EntityNotFoundError {
	return EntityNotFoundError{
		EntityType: entityType,
	}
}

// Error implements the error interface.
func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		if strings.TrimSpace(e.EntityType) != "" {
			return fmt.Sprintf("Entity %s not found", e.EntityType)
		}

		if e.Err != nil {
			return e.Err.Error()
		}

		return "entity not found"
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError records an error indicating an input failed a business validation.
type ValidationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// EntityConflictError records an error indicating an entity already exists in some repository.
type EntityConflictError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e EntityConflictError) Error() string {
	if e.Err != nil && strings.TrimSpace(e.Message) == "" {
		return e.Err.Error()
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityConflictError) Unwrap() error {
	return e.Err
}

// UnauthorizedError indicates an operation that couldn't be performed because there's no user authenticated.
type UnauthorizedError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e UnauthorizedError) Error() string {
	return e.Message
}

// ForbiddenError indicates an operation that couldn't be performed because the
// authenticated identity has no sufficient privileges.
type ForbiddenError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e ForbiddenError) Error() string {
	return e.Message
}

// UnprocessableOperationError indicates an operation that couldn't be performed because it's invalid.
type UnprocessableOperationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e UnprocessableOperationError) Error() string {
	return e.Message
}

// PaymentRequiredError indicates the request must carry a verified payment or enough credits.
type PaymentRequiredError struct {
	EntityType   string
	Title        string
	Message      string
	Code         string
	Requirements any
	Err          error
}

func (e PaymentRequiredError) Error() string {
	return e.Message
}

// RateLimitedError indicates the identity exceeded its admission window.
type RateLimitedError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	RetryAfter int
	Err        error
}

func (e RateLimitedError) Error() string {
	return e.Message
}

// UpstreamError indicates a backend invocation failed or timed out. Transient marks
// failures worth a retry (connection errors, 5xx); refusals (4xx) are not.
type UpstreamError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Timeout    bool
	Transient  bool
	Err        error
}

func (e UpstreamError) Error() string {
	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e UpstreamError) Unwrap() error {
	return e.Err
}

// FailedPreconditionError indicates a precondition failed during an operation.
type FailedPreconditionError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e FailedPreconditionError) Error() string {
	return e.Message
}

// InternalServerError indicates an unexpected error during an operation.
type InternalServerError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e InternalServerError) Error() string {
	return e.Message
}

// ResponseError is a struct used to return errors to the client.
type ResponseError struct {
	Code    int    `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error returns the message of the ResponseError.
func (r ResponseError) Error() string {
	return r.Message
}

// ValidationKnownFieldsError records an error that occurred during a validation of known fields.
type ValidationKnownFieldsError struct {
	EntityType string           `json:"entityType,omitempty"`
	Title      string           `json:"title,omitempty"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
	Fields     FieldValidations `json:"fields,omitempty"`
}

// Error returns the error message for a ValidationKnownFieldsError.
func (r ValidationKnownFieldsError) Error() string {
	return r.Message
}

// FieldValidations is a map of known fields and their validation errors.
type FieldValidations map[string]string

// ValidationUnknownFieldsError records fields sent by the client that no input declares.
type ValidationUnknownFieldsError struct {
	EntityType string        `json:"entityType,omitempty"`
	Title      string        `json:"title,omitempty"`
	Code       string        `json:"code,omitempty"`
	Message    string        `json:"message,omitempty"`
	Fields     UnknownFields `json:"fields,omitempty"`
}

// Error returns the error message for a ValidationUnknownFieldsError.
func (r ValidationUnknownFieldsError) Error() string {
	return r.Message
}

// UnknownFields is a map of unknown fields and their error messages.
type UnknownFields map[string]any

// ValidateInternalError validates the error and returns an appropriate InternalServerError.
func ValidateInternalError(err error, entityType string) error {
	return InternalServerError{
		EntityType: entityType,
		Code:       cn.ErrInternalServer.Error(),
		Title:      "Internal Server Error",
		Message:    "The server encountered an unexpected error. Please try again later or contact support.",
		Err:        err,
	}
}

// ValidateBadRequestFieldsError returns the appropriate bad request error with the invalid fields.
func ValidateBadRequestFieldsError(knownInvalidFields FieldValidations, entityType string, unknownFields UnknownFields) error {
	if len(unknownFields) == 0 && len(knownInvalidFields) == 0 {
		return errors.New("expected knownInvalidFields and unknownFields to be non-empty")
	}

	if len(unknownFields) > 0 {
		return ValidationUnknownFieldsError{
			EntityType: entityType,
			Code:       cn.ErrUnexpectedFields.Error(),
			Title:      "Unexpected Fields in the Request",
			Message:    "The request body contains more fields than expected. Please send only the allowed fields as per the documentation. The unexpected fields are listed in the fields object.",
			Fields:     unknownFields,
		}
	}

	return ValidationKnownFieldsError{
		EntityType: entityType,
		Code:       cn.ErrBadRequest.Error(),
		Title:      "Bad Request",
		Message:    "The server could not understand the request due to malformed syntax. Please check the listed fields and try again.",
		Fields:     knownInvalidFields,
	}
}

// ValidateBusinessError validates the error and returns the appropriate business error code, title, and message.
//
//nolint:gocyclo
func ValidateBusinessError(err error, entityType string, args ...any) error {
	switch {
	case errors.Is(err, cn.ErrUnauthorized):
		return UnauthorizedError{
			EntityType: entityType,
			Code:       cn.ErrUnauthorized.Error(),
			Title:      "Unauthorized",
			Message:    "The request lacks valid authentication credentials. Please provide a valid API key or session token and try again.",
		}
	case errors.Is(err, cn.ErrInvalidSignature):
		return UnauthorizedError{
			EntityType: entityType,
			Code:       cn.ErrInvalidSignature.Error(),
			Title:      "Invalid Signature",
			Message:    "The request signature does not match the expected value. Please verify the shared secret in use and try again.",
		}
	case errors.Is(err, cn.ErrForbidden):
		return ForbiddenError{
			EntityType: entityType,
			Code:       cn.ErrForbidden.Error(),
			Title:      "Forbidden",
			Message:    "You do not have the necessary permissions to perform this action. Please contact support if you believe this is an error.",
		}
	case errors.Is(err, cn.ErrRateLimited):
		return RateLimitedError{
			EntityType: entityType,
			Code:       cn.ErrRateLimited.Error(),
			Title:      "Rate Limited",
			Message:    "Too many requests in the current window. Please wait before retrying.",
		}
	case errors.Is(err, cn.ErrAdmissionRefused):
		return RateLimitedError{
			EntityType: entityType,
			Code:       cn.ErrAdmissionRefused.Error(),
			Title:      "Service Busy",
			Message:    "The service is shedding load and cannot accept new generations right now. Please retry after the indicated delay.",
		}
	case errors.Is(err, cn.ErrBadRequest):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrBadRequest.Error(),
			Title:      "Bad Request",
			Message:    "The server could not understand the request due to malformed syntax. Please check the request and try again.",
		}
	case errors.Is(err, cn.ErrEntityNotFound):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrEntityNotFound.Error(),
			Title:      "Entity Not Found",
			Message:    "No entity was found for the given ID. Please make sure to use the correct ID for the entity you are trying to manage.",
		}
	case errors.Is(err, cn.ErrInsufficientCredits):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrInsufficientCredits.Error(),
			Title:      "Insufficient Credits",
			Message:    "The account does not hold enough credits to cover the quoted cost. Please top up your balance and try again.",
		}
	case errors.Is(err, cn.ErrQuoteToleranceExceeded):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrQuoteToleranceExceeded.Error(),
			Title:      "Quote Tolerance Exceeded",
			Message:    fmt.Sprintf("The re-quoted cost of step %v exceeds the original quote beyond the declared tolerance. Please cast the spell again to obtain a fresh quote.", args...),
		}
	case errors.Is(err, cn.ErrPaymentRequired):
		return PaymentRequiredError{
			EntityType: entityType,
			Code:       cn.ErrPaymentRequired.Error(),
			Title:      "Payment Required",
			Message:    "This request requires a verified payment authorization. Please attach one following the payment requirements in the response.",
		}
	case errors.Is(err, cn.ErrPaymentAlreadyUsed):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrPaymentAlreadyUsed.Error(),
			Title:      "Payment Already Used",
			Message:    "The provided payment signature has already authorized a generation. A payment authorizes exactly one generation; please submit a fresh authorization.",
		}
	case errors.Is(err, cn.ErrBackendTimeout):
		return UpstreamError{
			EntityType: entityType,
			Code:       cn.ErrBackendTimeout.Error(),
			Title:      "Backend Timeout",
			Message:    "The upstream backend did not answer within the declared deadline. The generation was failed and any reserved credits were released.",
			Timeout:    true,
		}
	case errors.Is(err, cn.ErrBackendError):
		return UpstreamError{
			EntityType: entityType,
			Code:       cn.ErrBackendError.Error(),
			Title:      "Backend Error",
			Message:    "The upstream backend reported an error while processing the generation. Please try again; reserved credits were released.",
		}
	case errors.Is(err, cn.ErrInvalidWebhookURL):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrInvalidWebhookURL.Error(),
			Title:      "Invalid Webhook URL",
			Message:    fmt.Sprintf("The webhook URL %s is not acceptable. Use an absolute http(s) URL that is not loopback in production.", args...),
		}
	case errors.Is(err, cn.ErrInvalidToolInput):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrInvalidToolInput.Error(),
			Title:      "Invalid Tool Input",
			Message:    fmt.Sprintf("The inputs do not satisfy the tool's schema: %s", args...),
		}
	case errors.Is(err, cn.ErrSpellBindingUnresolved):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrSpellBindingUnresolved.Error(),
			Title:      "Unresolved Spell Binding",
			Message:    fmt.Sprintf("Step %v input %q cannot be resolved from literals, parameters or prior step outputs. Please fix the spell definition and publish a new version.", args...),
		}
	case errors.Is(err, cn.ErrSpellNotPublished):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrSpellNotPublished.Error(),
			Title:      "Spell Not Published",
			Message:    "Only published spells can be cast. Please publish the spell first.",
		}
	case errors.Is(err, cn.ErrWalletAlreadyLinked):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrWalletAlreadyLinked.Error(),
			Title:      "Wallet Already Linked",
			Message:    fmt.Sprintf("The wallet address %s is already linked to an account. A wallet binds to at most one user.", args...),
		}
	case errors.Is(err, cn.ErrAlreadyTerminal):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrAlreadyTerminal.Error(),
			Title:      "Generation Already Terminal",
			Message:    "The generation already reached a terminal state and cannot be transitioned again.",
		}
	case errors.Is(err, cn.ErrRateLimitUnavailable):
		return RateLimitedError{
			EntityType: entityType,
			Code:       cn.ErrRateLimitUnavailable.Error(),
			Title:      "Rate Limiting Unavailable",
			Message:    "The admission control backend is unavailable; requests are refused until it recovers.",
		}
	default:
		return err
	}
}
