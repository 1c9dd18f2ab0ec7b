// Package main is the voicesurf native-messaging host.
package main

import (
	"fmt"
	"os"

	"github.com/voicesurf/voicesurf/cmd/voicesurf/cmd"
	herrors "github.com/voicesurf/voicesurf/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, herrors.FormatForCLI(err))
		os.Exit(1)
	}
}
