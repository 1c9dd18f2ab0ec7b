// Package errors provides structured error handling for the voicesurf host.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (runtime directory, Talon files)
//   - 4XX: Protocol errors (browser frames, Talon messages)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and directory I/O errors.
	CategoryIO Category = "IO"
	// CategoryProtocol indicates malformed input on an IPC boundary.
	CategoryProtocol Category = "PROTOCOL"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the host must exit.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates an operation failed but the host can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigParse   = "ERR_102_CONFIG_PARSE"
	ErrCodeConfigWrite   = "ERR_103_CONFIG_WRITE"

	// IO errors (200-299)
	ErrCodeRuntimeDir     = "ERR_201_RUNTIME_DIR"
	ErrCodeTalonWrite     = "ERR_202_TALON_WRITE"
	ErrCodeTalonRead      = "ERR_203_TALON_READ"
	ErrCodeInstanceLocked = "ERR_204_INSTANCE_LOCKED"

	// Protocol errors (400-499)
	ErrCodeProtocolViolation = "ERR_401_PROTOCOL_VIOLATION"
	ErrCodeFrameTooLarge     = "ERR_402_FRAME_TOO_LARGE"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "401" from "ERR_401_PROTOCOL_VIOLATION")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryProtocol
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Protocol violations are fatal: no partial recovery is attempted
// mid-stream. Talon channel I/O stays isolated to that channel.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryProtocol, CategoryConfig:
		return SeverityFatal
	}
	switch code {
	case ErrCodeRuntimeDir:
		return SeverityFatal
	case ErrCodeInstanceLocked:
		return SeverityWarning
	}
	return SeverityError
}
