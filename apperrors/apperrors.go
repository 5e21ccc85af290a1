package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the stable taxonomy that portals translate
// into machine-readable codes.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalidState         Kind = "invalid_state"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindPaymentRequired      Kind = "payment_required"
	KindPaymentFailed        Kind = "payment_failed"
	KindAuthenticationFailed Kind = "authentication_failed"
	KindInternal             Kind = "internal"
)

// Error carries a taxonomy kind, a stable machine-readable code and a
// human-readable message. Remaining is set on capacity errors when the
// remaining-quantity figure is known.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Remaining *int64
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing event/ticket/customer/card; never retried.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// InvalidState reports an operation against a ticket or card whose status
// forbids it.
func InvalidState(code, message string) *Error {
	return &Error{Kind: KindInvalidState, Code: code, Message: message}
}

// CapacityExceeded reports an availability or per-booking limit violation,
// carrying the remaining quantity when known (pass a negative value when not).
func CapacityExceeded(code, message string, remaining int64) *Error {
	e := &Error{Kind: KindCapacityExceeded, Code: code, Message: message}
	if remaining >= 0 {
		e.Remaining = &remaining
	}
	return e
}

// PaymentRequired reports an unmet fee precondition; surfaced before any
// ownership mutation occurs.
func PaymentRequired(code, message string) *Error {
	return &Error{Kind: KindPaymentRequired, Code: code, Message: message}
}

// PaymentFailed reports a charge that was attempted and did not complete.
func PaymentFailed(code, message string) *Error {
	return &Error{Kind: KindPaymentFailed, Code: code, Message: message}
}

// AuthenticationFailed reports a credential or OTP mismatch.
func AuthenticationFailed(code, message string) *Error {
	return &Error{Kind: KindAuthenticationFailed, Code: code, Message: message}
}

// Internal wraps an unexpected collaborator failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain, defaulting to
// KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf extracts the stable machine-readable code from an error chain.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus maps a taxonomy kind to the HTTP status the portals respond
// with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return 404
	case KindInvalidState, KindCapacityExceeded:
		return 400
	case KindPaymentRequired:
		return 402
	case KindPaymentFailed:
		return 402
	case KindAuthenticationFailed:
		return 401
	default:
		return 500
	}
}

// As is a convenience wrapper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}
