// Package ui renders human-facing CLI output. It is never used on the
// host's stdout, which carries browser frames only.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// UseColor reports whether output to w should be colored: it must be a
// terminal and NO_COLOR must be unset.
func UseColor(w io.Writer) bool {
	return IsTTY(w) && !DetectNoColor()
}
