package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTTY_WithBuffer_ReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestIsTTY_WithNil_ReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestUseColor_NotATerminal(t *testing.T) {
	assert.False(t, UseColor(&bytes.Buffer{}))
}
