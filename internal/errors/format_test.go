package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI(t *testing.T) {
	err := ProtocolError("malformed browser message", io.ErrUnexpectedEOF).
		WithSuggestion("check the extension version")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: malformed browser message")
	assert.Contains(t, out, "Cause: unexpected EOF")
	assert.Contains(t, out, "Hint: check the extension version")
	assert.Contains(t, out, "Code: ERR_401_PROTOCOL_VIOLATION")
}

func TestFormatForCLI_PlainError(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))

	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Code: ERR_501_INTERNAL")
	assert.NotContains(t, out, "Cause:")
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestLogAttrs(t *testing.T) {
	err := New(ErrCodeTalonRead, "read query file", io.EOF).
		WithDetail("path", "/tmp/output/v0")

	attrs := LogAttrs(err)

	keys := make(map[string]string)
	for _, a := range attrs {
		keys[a.Key] = a.Value.String()
	}
	assert.Equal(t, ErrCodeTalonRead, keys["error_code"])
	assert.Equal(t, "IO", keys["category"])
	assert.Equal(t, "EOF", keys["cause"])
	assert.Equal(t, "/tmp/output/v0", keys["detail_path"])
}

func TestLogAttrs_PlainError(t *testing.T) {
	attrs := LogAttrs(errors.New("plain"))

	assert.Len(t, attrs, 1)
	assert.Equal(t, "error", attrs[0].Key)
}
