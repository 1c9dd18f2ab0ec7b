package talon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/metrics"
	"github.com/voicesurf/voicesurf/internal/router"
	"github.com/voicesurf/voicesurf/internal/watcher"
)

// Reader watches Talon's output directory and forwards each query it finds
// to the router.
//
// Every event in the directory triggers a full re-read of the query file.
// Talon writes that file in place, so a read can land mid-write: an empty
// file is skipped as not yet written, but a truncated non-empty file fails
// to parse and stops the host like any other protocol violation.
type Reader struct {
	paths   Paths
	sink    router.Sink[router.Event]
	opts    watcher.Options
	ready   chan struct{}
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewReader creates a reader for paths. opts configures the directory
// watcher.
func NewReader(paths Paths, sink router.Sink[router.Event], opts watcher.Options, m *metrics.Metrics) *Reader {
	if m == nil {
		m = metrics.New()
	}
	return &Reader{
		paths:   paths,
		sink:    sink,
		opts:    opts,
		ready:   make(chan struct{}),
		logger:  slog.Default().With(slog.String("component", "talon_reader")),
		metrics: m,
	}
}

// Ready is closed once the output directory is being watched. Run must be
// called at most once.
func (r *Reader) Ready() <-chan struct{} {
	return r.ready
}

// Run watches until ctx is cancelled or the router stops accepting events,
// returning nil. A malformed query file is returned as a fatal error. If
// the directory cannot be watched the reader logs and gives up without
// affecting the rest of the host.
func (r *Reader) Run(ctx context.Context) error {
	w, err := watcher.NewHybridWatcher(r.opts)
	if err != nil {
		r.isolate(ctx, herrors.New(herrors.ErrCodeTalonRead, "create output watcher", err))
		return nil
	}
	defer func() {
		_ = w.Stop()
		r.stopped(r.paths.OutputDir(), w.DroppedEvents())
	}()

	started := make(chan error, 1)
	go func() { started <- w.Start(ctx, r.paths.OutputDir()) }()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-stop:
		case <-w.Ready():
			r.logger.Info("watching for Talon queries",
				slog.String("dir", w.Dir()),
				slog.String("watcher", w.WatcherType()))
			close(r.ready)
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-started:
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				r.isolate(ctx, herrors.New(herrors.ErrCodeTalonRead, "watch output directory", err).
					WithDetail("path", r.paths.OutputDir()))
			}
			return nil

		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			r.logger.Debug("output directory event",
				slog.String("path", event.Path),
				slog.String("op", event.Operation.String()))

			q, found, err := r.ReadQuery()
			if err != nil {
				if herrors.IsFatal(err) {
					return err
				}
				r.metrics.TalonQueryReads.WithLabelValues("error").Inc()
				r.logger.LogAttrs(ctx, slog.LevelWarn, "read Talon query", herrors.LogAttrs(err)...)
				continue
			}
			if !found {
				continue
			}
			if err := r.sink.Send(q); err != nil {
				r.logger.Info("router stopped accepting queries", slog.String("error", err.Error()))
				return nil
			}

		case err, ok := <-w.Errors():
			if ok {
				r.logger.Warn("output watcher error", slog.String("error", err.Error()))
			}
		}
	}
}

// ReadQuery reads and decodes the query file once. found is false when
// there is nothing to forward: the file is missing or empty, or Talon has
// not associated the query with a tab.
func (r *Reader) ReadQuery() (q router.Query, found bool, err error) {
	data, err := os.ReadFile(r.paths.Output)
	if errors.Is(err, fs.ErrNotExist) {
		r.metrics.TalonQueryReads.WithLabelValues("missing").Inc()
		return router.Query{}, false, nil
	}
	if err != nil {
		return router.Query{}, false, herrors.New(herrors.ErrCodeTalonRead,
			fmt.Sprintf("read %s", r.paths.Output), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		r.metrics.TalonQueryReads.WithLabelValues("empty").Inc()
		return router.Query{}, false, nil
	}

	q, ok, err := DecodeQuery(data)
	if err != nil {
		r.metrics.TalonQueryReads.WithLabelValues("malformed").Inc()
		return router.Query{}, false, err
	}
	if !ok {
		r.metrics.TalonQueryReads.WithLabelValues("no_tab").Inc()
		r.logger.Warn("dropping Talon query without a tab", slog.String("query", q.Text))
		return router.Query{}, false, nil
	}

	r.metrics.TalonQueryReads.WithLabelValues("ok").Inc()
	r.logger.Debug("Talon query",
		slog.Uint64("tab_id", uint64(q.TabID)),
		slog.String("query", q.Text))
	return q, true, nil
}

// stopped records watcher events lost to a full buffer. Each lost event
// may have been a query Talon never saw answered.
func (r *Reader) stopped(dir string, dropped uint64) {
	if dropped > 0 {
		r.metrics.EventsDropped.WithLabelValues("watcher_overflow").Add(float64(dropped))
	}
	r.logger.Info("stopped watching for Talon queries",
		slog.String("dir", dir),
		slog.Uint64("dropped_events", dropped))
}

func (r *Reader) isolate(ctx context.Context, err error) {
	r.metrics.TalonQueryReads.WithLabelValues("error").Inc()
	r.logger.LogAttrs(ctx, slog.LevelError, "Talon reader stopped", herrors.LogAttrs(err)...)
}
