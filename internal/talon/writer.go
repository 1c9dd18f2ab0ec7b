package talon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/metrics"
	"github.com/voicesurf/voicesurf/internal/router"
)

// PublishMode selects how a staged vocabulary file reaches the watched path.
type PublishMode string

const (
	// PublishRename atomically renames the staged file over the input file.
	PublishRename PublishMode = "rename"
	// PublishCopy copies the staged file's bytes into the input file. Talon
	// may observe a partially written file.
	PublishCopy PublishMode = "copy"
)

// ParsePublishMode validates a configured publish mode. Empty means
// PublishRename.
func ParsePublishMode(s string) (PublishMode, error) {
	switch PublishMode(s) {
	case "", PublishRename:
		return PublishRename, nil
	case PublishCopy:
		return PublishCopy, nil
	}
	return "", herrors.ConfigError(fmt.Sprintf("unknown Talon publish mode %q", s), nil).
		WithSuggestion("Use 'rename' or 'copy'")
}

// Writer publishes vocabulary updates for Talon, one at a time in arrival
// order.
type Writer struct {
	paths   Paths
	mode    PublishMode
	inbox   *router.Mailbox[router.VocabularyUpdate]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewWriter creates a writer publishing into paths.
func NewWriter(paths Paths, mode PublishMode, m *metrics.Metrics) *Writer {
	if mode == "" {
		mode = PublishRename
	}
	if m == nil {
		m = metrics.New()
	}
	return &Writer{
		paths:   paths,
		mode:    mode,
		inbox:   router.NewMailbox[router.VocabularyUpdate](),
		logger:  slog.Default().With(slog.String("component", "talon_writer")),
		metrics: m,
	}
}

// Send queues an update. It implements router.Sink.
func (w *Writer) Send(u router.VocabularyUpdate) error {
	return w.inbox.Send(u)
}

// Run publishes queued updates until ctx is cancelled. A file error stops
// this writer only: it is logged, later updates are rejected, and Run
// returns nil so the rest of the host keeps running.
func (w *Writer) Run(ctx context.Context) error {
	defer w.inbox.Close()
	for {
		u, ok := w.inbox.Receive(ctx)
		if !ok {
			return nil
		}
		if err := w.Publish(u); err != nil {
			w.metrics.TalonPublishes.WithLabelValues("error").Inc()
			w.logger.LogAttrs(ctx, slog.LevelError, "Talon writer stopped", herrors.LogAttrs(err)...)
			return nil
		}
		w.metrics.TalonPublishes.WithLabelValues("ok").Inc()
		w.logger.Debug("published vocabulary",
			slog.Uint64("tab_id", uint64(u.TabID)),
			slog.Int("words", len(u.Words)))
	}
}

// Publish stages one update and makes it visible at the input path.
func (w *Writer) Publish(u router.VocabularyUpdate) error {
	payload, err := EncodeUpdate(u)
	if err != nil {
		return herrors.InternalError("encode Talon update", err)
	}
	if err := writeSynced(w.paths.Preinput, payload); err != nil {
		return talonWriteError("stage", w.paths.Preinput, err)
	}

	switch w.mode {
	case PublishCopy:
		if err := copyFile(w.paths.Preinput, w.paths.Input); err != nil {
			return talonWriteError("publish", w.paths.Input, err)
		}
	default:
		if err := os.Rename(w.paths.Preinput, w.paths.Input); err != nil {
			return talonWriteError("publish", w.paths.Input, err)
		}
	}
	return nil
}

// writeSynced truncates path, writes data and flushes it to disk.
func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func talonWriteError(step, path string, err error) error {
	return herrors.New(herrors.ErrCodeTalonWrite, fmt.Sprintf("%s Talon vocabulary", step), err).
		WithDetail("path", path)
}
