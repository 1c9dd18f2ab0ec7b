// Package host wires the native-messaging host together: browser input and
// output on stdin/stdout, the tab router, and the Talon file channel, all
// supervised by one errgroup.
package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/voicesurf/voicesurf/internal/browser"
	"github.com/voicesurf/voicesurf/internal/config"
	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/metrics"
	"github.com/voicesurf/voicesurf/internal/router"
	"github.com/voicesurf/voicesurf/internal/rundir"
	"github.com/voicesurf/voicesurf/internal/talon"
	"github.com/voicesurf/voicesurf/internal/watcher"
)

// Options configures a Host. Stdin and Stdout default to the process's.
type Options struct {
	Config  *config.Config
	Stdin   io.Reader
	Stdout  io.Writer
	Metrics *metrics.Metrics
}

// Host runs one native-messaging session.
type Host struct {
	cfg     *config.Config
	stdin   io.Reader
	stdout  io.Writer
	paths   talon.Paths
	mode    talon.PublishMode
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New validates opts and prepares a Host without touching the filesystem.
func New(opts Options) (*Host, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := talon.ParsePublishMode(cfg.Talon.PublishMode)
	if err != nil {
		return nil, err
	}

	h := &Host{
		cfg:     cfg,
		stdin:   opts.Stdin,
		stdout:  opts.Stdout,
		paths:   talon.NewPaths(cfg.RuntimeDir(), cfg.Runtime.ProtocolVersion),
		mode:    mode,
		metrics: opts.Metrics,
		logger:  slog.Default().With(slog.String("component", "host")),
	}
	if h.stdin == nil {
		h.stdin = os.Stdin
	}
	if h.stdout == nil {
		h.stdout = os.Stdout
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	return h, nil
}

// Paths returns the Talon file locations this host uses.
func (h *Host) Paths() talon.Paths {
	return h.paths
}

// Run serves until stdin ends, the router stops or ctx is cancelled, and
// returns nil in those cases. A protocol violation on either channel, or a
// failed write to the browser, is returned as an error.
func (h *Host) Run(ctx context.Context) error {
	if err := h.paths.EnsureDirs(); err != nil {
		return err
	}

	inst, err := rundir.Acquire(h.paths.Root)
	if err != nil {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "running without the instance lock", herrors.LogAttrs(err)...)
	} else {
		defer func() {
			if err := inst.Release(); err != nil {
				h.logger.Warn("release instance lock", slog.String("error", err.Error()))
			}
		}()
	}

	if f, ok := h.stdin.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		h.logger.Warn("stdin is a terminal; this program is meant to be launched by a browser extension")
	}

	output := browser.NewOutputWriter(h.stdout, h.cfg.Browser.MaxResults, h.metrics)
	vocabulary := talon.NewWriter(h.paths, h.mode, h.metrics)
	r, err := router.New(output, vocabulary, router.Options{
		ClosedTabMemory: h.cfg.Router.ClosedTabMemory,
		Metrics:         h.metrics,
	})
	if err != nil {
		return herrors.ConfigError("configure router", err)
	}
	queries := talon.NewReader(h.paths, r, watcher.Options{PollInterval: h.cfg.Talon.PollInterval}, h.metrics)
	input := browser.NewInputReader(h.stdin, r, h.cfg.Browser.MaxFrameBytes, h.metrics)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	h.logger.Info("host started",
		slog.String("runtime_dir", h.paths.Root),
		slog.String("publish_mode", string(h.mode)),
		slog.Int("closed_tab_memory", h.cfg.Router.ClosedTabMemory))

	g.Go(func() error {
		defer cancel()
		return r.Run(gctx)
	})
	g.Go(func() error { return output.Run(gctx) })
	g.Go(func() error { return vocabulary.Run(gctx) })
	g.Go(func() error { return queries.Run(gctx) })
	g.Go(func() error {
		// A blocked read on stdin cannot be interrupted, so the reader runs
		// outside the group and is abandoned at shutdown.
		done := make(chan error, 1)
		go func() { done <- input.Run(gctx) }()
		select {
		case err := <-done:
			if err == nil {
				cancel()
			}
			return err
		case <-gctx.Done():
			return nil
		}
	})
	if addr := h.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			if err := h.metrics.Serve(gctx, addr); err != nil {
				h.logger.Warn("metrics endpoint unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.LogAttrs(context.Background(), slog.LevelError, "host stopped", herrors.LogAttrs(err)...)
		return err
	}
	h.logger.Info("host stopped")
	return nil
}
