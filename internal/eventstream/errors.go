package eventstream

import (
	"errors"
	"fmt"
)

// Error is the single error type returned by the index layer.
//
// Codes:
//   - CONFIGURATION_ERROR: bad or missing index definition fields (fatal)
//   - UNKNOWN_STRATEGY: no adapter registered for the requested kind
//   - ARGUMENT_ERROR: wrong arity or shape of scope arguments
//   - BACKEND_UNAVAILABLE: backend failure, never retried by this layer
//   - INVALID_BOOKMARK: bookmark rejected before any backend call
//   - INVARIANT_VIOLATION: misuse of an immutable or stateful object
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Index names the index definition involved, if any.
	Index string

	// Kind names the backend kind involved, if any.
	Kind Kind

	// Err is the underlying error (backend failures).
	Err error
}

// ErrorCode categorizes index layer errors.
type ErrorCode string

const (
	ErrCodeConfiguration      ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeUnknownStrategy    ErrorCode = "UNKNOWN_STRATEGY"
	ErrCodeArgument           ErrorCode = "ARGUMENT_ERROR"
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeInvalidBookmark    ErrorCode = "INVALID_BOOKMARK"
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Index != "" && e.Kind != KindUnknown:
		msg = fmt.Sprintf("%s (index=%s, kind=%s)", msg, e.Index, e.Kind)
	case e.Index != "":
		msg = fmt.Sprintf("%s (index=%s)", msg, e.Index)
	case e.Kind != KindUnknown:
		msg = fmt.Sprintf("%s (kind=%s)", msg, e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error so callers can match backend errors
// with errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates an Error for an invalid index definition.
func NewConfigurationError(index, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf(format, args...),
		Index:   index,
	}
}

// NewUnknownStrategyError creates an Error for an unregistered backend kind.
func NewUnknownStrategyError(index string, kind Kind) *Error {
	return &Error{
		Code:    ErrCodeUnknownStrategy,
		Message: fmt.Sprintf("no strategy registered for kind %q", kind),
		Index:   index,
		Kind:    kind,
	}
}

// NewArgumentError creates an Error for malformed scope arguments.
func NewArgumentError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewBackendUnavailableError wraps a backend failure.
func NewBackendUnavailableError(index string, kind Kind, err error) *Error {
	return &Error{
		Code:    ErrCodeBackendUnavailable,
		Message: "backend query failed",
		Index:   index,
		Kind:    kind,
		Err:     err,
	}
}

// NewInvalidBookmarkError creates an Error for a malformed bookmark.
func NewInvalidBookmarkError(index string, kind Kind, b Bookmark) *Error {
	return &Error{
		Code:    ErrCodeInvalidBookmark,
		Message: fmt.Sprintf("malformed bookmark %q", string(b)),
		Index:   index,
		Kind:    kind,
	}
}

// NewInvariantViolation creates an Error for misuse of immutable or
// stateful objects.
func NewInvariantViolation(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvariantViolation,
		Message: fmt.Sprintf(format, args...),
	}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConfigurationError reports whether err is a CONFIGURATION_ERROR.
func IsConfigurationError(err error) bool { return hasCode(err, ErrCodeConfiguration) }

// IsUnknownStrategy reports whether err is an UNKNOWN_STRATEGY error.
func IsUnknownStrategy(err error) bool { return hasCode(err, ErrCodeUnknownStrategy) }

// IsArgumentError reports whether err is an ARGUMENT_ERROR.
func IsArgumentError(err error) bool { return hasCode(err, ErrCodeArgument) }

// IsBackendUnavailable reports whether err is a BACKEND_UNAVAILABLE error.
func IsBackendUnavailable(err error) bool { return hasCode(err, ErrCodeBackendUnavailable) }

// IsInvalidBookmark reports whether err is an INVALID_BOOKMARK error.
func IsInvalidBookmark(err error) bool { return hasCode(err, ErrCodeInvalidBookmark) }

// IsInvariantViolation reports whether err is an INVARIANT_VIOLATION.
func IsInvariantViolation(err error) bool { return hasCode(err, ErrCodeInvariantViolation) }
