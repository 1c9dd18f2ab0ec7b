package errors

import (
	"errors"
	"fmt"
)

// HostError is the structured error type for the voicesurf host.
type HostError struct {
	// Code is the unique error code (e.g., "ERR_401_PROTOCOL_VIOLATION").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Protocol, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *HostError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *HostError) Unwrap() error {
	return e.Cause
}

// Is matches another HostError by code, so errors.Is works against the
// sentinel values below.
func (e *HostError) Is(target error) bool {
	if t, ok := target.(*HostError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *HostError) WithDetail(key, value string) *HostError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *HostError) WithSuggestion(suggestion string) *HostError {
	e.Suggestion = suggestion
	return e
}

// Sentinels for errors.Is matching.
var (
	ErrProtocolViolation = &HostError{Code: ErrCodeProtocolViolation}
	ErrFrameTooLarge     = &HostError{Code: ErrCodeFrameTooLarge}
	ErrInstanceLocked    = &HostError{Code: ErrCodeInstanceLocked}
	ErrTalonWrite        = &HostError{Code: ErrCodeTalonWrite}
	ErrTalonRead         = &HostError{Code: ErrCodeTalonRead}
)

// New creates a new HostError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *HostError {
	return &HostError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a HostError from an existing error.
func Wrap(code string, err error) *HostError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *HostError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ProtocolError creates a protocol violation error.
func ProtocolError(message string, cause error) *HostError {
	return New(ErrCodeProtocolViolation, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *HostError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal reports whether err, or any error it wraps, is a fatal HostError.
func IsFatal(err error) bool {
	var he *HostError
	if errors.As(err, &he) {
		return he.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first HostError in err's chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}
