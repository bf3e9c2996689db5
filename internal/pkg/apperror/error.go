// internal/pkg/apperror/error.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the closed taxonomy the router maps to HTTP
// statuses. Provider-specific failures are translated into a Kind exactly
// once, at the identity/token boundary.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindUpstream
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error carries a taxonomy kind, a stable machine-readable code and a
// user-facing message. The wrapped cause never reaches clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
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

// New creates a taxonomy error without an underlying cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates a taxonomy error around an underlying cause.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf returns the taxonomy kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of err, or "InternalError" for untyped errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "InternalError"
}

// MessageOf returns the user-facing message of err, or a generic fallback.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// Common session/store errors shared across the service layer.
var (
	ErrSessionNotFound = New(KindNotFound, "SessionNotFound", "session not found")
	ErrSessionInactive = New(KindAuthentication, "InvalidSession", "session has been revoked")
	ErrSessionExpired  = New(KindAuthentication, "SessionExpired", "session has expired")
	ErrUserNotFound    = New(KindNotFound, "UserNotFound", "user not found")
	ErrNotFound        = New(KindNotFound, "NotFound", "resource not found")
)
