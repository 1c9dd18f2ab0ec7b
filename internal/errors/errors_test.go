package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	original := io.ErrUnexpectedEOF

	// When: wrapping it
	err := ProtocolError("truncated frame", original)

	// Then: the chain still reaches the original
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrProtocolViolation))
}

func TestHostError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *HostError
		expected string
	}{
		{
			name:     "no cause",
			err:      New(ErrCodeConfigInvalid, "bad publish mode", nil),
			expected: "[ERR_101_CONFIG_INVALID] bad publish mode",
		},
		{
			name:     "with cause",
			err:      New(ErrCodeTalonWrite, "publish vocabulary", io.ErrShortWrite),
			expected: "[ERR_202_TALON_WRITE] publish vocabulary: short write",
		},
		{
			name:     "wrapped cause is not repeated",
			err:      Wrap(ErrCodeInternal, io.EOF),
			expected: "[ERR_501_INTERNAL] EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestHostError_Is_MatchesByCode(t *testing.T) {
	a := New(ErrCodeFrameTooLarge, "frame of 9 GiB", nil)
	b := New(ErrCodeFrameTooLarge, "frame of 1 GiB", nil)
	c := New(ErrCodeProtocolViolation, "bad json", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityFatal},
		{ErrCodeRuntimeDir, CategoryIO, SeverityFatal},
		{ErrCodeTalonWrite, CategoryIO, SeverityError},
		{ErrCodeTalonRead, CategoryIO, SeverityError},
		{ErrCodeInstanceLocked, CategoryIO, SeverityWarning},
		{ErrCodeProtocolViolation, CategoryProtocol, SeverityFatal},
		{ErrCodeFrameTooLarge, CategoryProtocol, SeverityFatal},
		{ErrCodeInternal, CategoryInternal, SeverityError},
		{"BAD", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestIsFatal_FollowsChain(t *testing.T) {
	inner := ProtocolError("bad json", nil)
	outer := fmt.Errorf("browser reader: %w", inner)

	assert.True(t, IsFatal(outer))
	assert.False(t, IsFatal(New(ErrCodeTalonRead, "read", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestGetCode(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", New(ErrCodeTalonWrite, "x", nil))

	assert.Equal(t, ErrCodeTalonWrite, GetCode(wrapped))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeRuntimeDir, "cannot create", nil).
		WithDetail("path", "/run/user/1000/voicesurf").
		WithSuggestion("set runtime.dir")

	assert.Equal(t, "/run/user/1000/voicesurf", err.Details["path"])
	assert.Equal(t, "set runtime.dir", err.Suggestion)
}
