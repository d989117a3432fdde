package errors

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
)

// Error kinds. Every HTTPError unwraps to exactly one of these so callers can
// use errors.Is without caring about the message.
var (
	ErrValidation        = stderrors.New("validation_error")
	ErrBookingConflict   = stderrors.New("booking_conflict")
	ErrAlreadyCancelled  = stderrors.New("already_cancelled")
	ErrSignatureInvalid  = stderrors.New("signature_invalid")
	ErrNotFound          = stderrors.New("not_found")
	ErrUnauthorized      = stderrors.New("unauthorized")
	ErrForbidden         = stderrors.New("forbidden")
	ErrDependency        = stderrors.New("dependency_failure")
	ErrDependencyTimeout = stderrors.New("dependency_timeout")
	ErrInternal          = stderrors.New("internal_error")
)

var kindStatus = map[error]int{
	ErrValidation:        http.StatusBadRequest,
	ErrBookingConflict:   http.StatusConflict,
	ErrAlreadyCancelled:  http.StatusConflict,
	ErrSignatureInvalid:  http.StatusBadRequest,
	ErrNotFound:          http.StatusNotFound,
	ErrUnauthorized:      http.StatusUnauthorized,
	ErrForbidden:         http.StatusForbidden,
	ErrDependency:        http.StatusBadGateway,
	ErrDependencyTimeout: http.StatusGatewayTimeout,
	ErrInternal:          http.StatusInternalServerError,
}

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
	Kind    error
	cause   error
}

func (e *HTTPError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Is reports a match against the error kind.
func (e *HTTPError) Is(target error) bool {
	return e.Kind == target
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
		Kind:    kindForStatus(code),
	}
}

func newKind(kind error, message string, cause error) *HTTPError {
	return &HTTPError{
		Code:    kindStatus[kind],
		Message: message,
		Kind:    kind,
		cause:   cause,
	}
}

func Validation(msg string) *HTTPError       { return newKind(ErrValidation, msg, nil) }
func Conflict(msg string) *HTTPError         { return newKind(ErrBookingConflict, msg, nil) }
func AlreadyCancelled(msg string) *HTTPError { return newKind(ErrAlreadyCancelled, msg, nil) }
func SignatureInvalid(msg string) *HTTPError { return newKind(ErrSignatureInvalid, msg, nil) }
func NotFound(msg string) *HTTPError         { return newKind(ErrNotFound, msg, nil) }
func Unauthorized(msg string) *HTTPError     { return newKind(ErrUnauthorized, msg, nil) }
func Forbidden(msg string) *HTTPError        { return newKind(ErrForbidden, msg, nil) }

// Dependency wraps an outbound call failure. Timeouts are reported as
// ErrDependencyTimeout so clients can tell them apart from outages.
func Dependency(msg string, cause error) *HTTPError {
	if IsTimeout(cause) {
		return newKind(ErrDependencyTimeout, msg, cause)
	}
	return newKind(ErrDependency, msg, cause)
}

// IsTimeout reports whether err came from an expired deadline or a network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}

// FromError maps any error to the HTTPError sent to the client. Unknown errors
// become a generic 500 so no internal detail leaks.
func FromError(err error) *HTTPError {
	var he *HTTPError
	if stderrors.As(err, &he) {
		return he
	}
	return newKind(ErrInternal, "internal server error", nil)
}

// KindName is the machine readable kind used in error payloads.
func (e *HTTPError) KindName() string {
	if e.Kind == nil {
		return ErrInternal.Error()
	}
	return e.Kind.Error()
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusConflict:
		return ErrBookingConflict
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusBadGateway:
		return ErrDependency
	case http.StatusGatewayTimeout:
		return ErrDependencyTimeout
	}
	return ErrInternal
}
