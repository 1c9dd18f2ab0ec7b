// Package talon exchanges files with the Talon voice-control front-end.
//
// Talon and the host share a runtime directory:
//
//	{runtime}/preinput/{version}  staged vocabulary, written by the host
//	{runtime}/input/{version}     published vocabulary, watched by Talon
//	{runtime}/output/{version}    latest query, written by Talon
//
// The Writer stages and publishes vocabulary updates; the Reader watches
// the output directory and turns the query file into router events.
package talon

import (
	"fmt"
	"os"
	"path/filepath"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
)

// DefaultProtocolVersion names the files exchanged with Talon.
const DefaultProtocolVersion = "v0"

// Paths locates the files shared with Talon.
type Paths struct {
	Root     string
	Input    string
	Preinput string
	Output   string
}

// NewPaths derives the Talon file locations under root. An empty version
// means DefaultProtocolVersion.
func NewPaths(root, version string) Paths {
	if version == "" {
		version = DefaultProtocolVersion
	}
	return Paths{
		Root:     root,
		Input:    filepath.Join(root, "input", version),
		Preinput: filepath.Join(root, "preinput", version),
		Output:   filepath.Join(root, "output", version),
	}
}

// OutputDir is the directory the Reader watches.
func (p Paths) OutputDir() string {
	return filepath.Dir(p.Output)
}

// EnsureDirs creates the input, preinput and output directories.
func (p Paths) EnsureDirs() error {
	for _, file := range []string{p.Input, p.Preinput, p.Output} {
		dir := filepath.Dir(file)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return herrors.New(herrors.ErrCodeRuntimeDir,
				fmt.Sprintf("create %s", dir), err).
				WithSuggestion("Check permissions on the runtime directory or set runtime.dir")
		}
	}
	return nil
}
