// Package router multiplexes browser and Talon events onto one worker
// goroutine per browser tab and fans worker results out to the browser
// output writer and the Talon writer.
//
// The router goroutine is the only code that touches the TabID→worker
// registry. Everything else talks to it through its Mailbox.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voicesurf/voicesurf/internal/metrics"
)

// DefaultClosedTabMemory is how many closed TabIDs are remembered.
const DefaultClosedTabMemory = 1024

// Sink accepts messages without blocking. *Mailbox satisfies it.
type Sink[T any] interface {
	Send(T) error
}

// Options configures a Router.
type Options struct {
	// ClosedTabMemory is how many closed TabIDs are remembered so that
	// late events for them are dropped instead of spawning a new worker.
	// Zero disables the memory: a closed tab is recreated by its next event.
	ClosedTabMemory int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics defaults to a private, unexported set.
	Metrics *metrics.Metrics
}

// Router owns the tab worker registry.
type Router struct {
	inbox      *Mailbox[Event]
	scores     Sink[ScoreResult]
	vocabulary Sink[VocabularyUpdate]
	workers    map[TabID]*worker
	closed     *lru.Cache[TabID, struct{}]
	wg         sync.WaitGroup
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New creates a router forwarding score results to scores and vocabulary
// updates to vocabulary.
func New(scores Sink[ScoreResult], vocabulary Sink[VocabularyUpdate], opts Options) (*Router, error) {
	if opts.ClosedTabMemory < 0 {
		return nil, fmt.Errorf("closed tab memory must be non-negative, got %d", opts.ClosedTabMemory)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	r := &Router{
		inbox:      NewMailbox[Event](),
		scores:     scores,
		vocabulary: vocabulary,
		workers:    make(map[TabID]*worker),
		logger:     opts.Logger.With(slog.String("component", "router")),
		metrics:    opts.Metrics,
	}
	if opts.ClosedTabMemory > 0 {
		closed, err := lru.New[TabID, struct{}](opts.ClosedTabMemory)
		if err != nil {
			return nil, fmt.Errorf("create closed tab cache: %w", err)
		}
		r.closed = closed
	}
	return r, nil
}

// Send queues an event for the router. It fails only after Close.
func (r *Router) Send(ev Event) error {
	return r.inbox.Send(ev)
}

// Close stops accepting events. Run returns once it notices.
func (r *Router) Close() {
	r.inbox.Close()
}

// Run processes events until the inbox is closed or ctx is cancelled, then
// closes every worker's inbox and waits for the workers to exit.
func (r *Router) Run(ctx context.Context) error {
	defer r.shutdown()
	for {
		ev, ok := r.inbox.Receive(ctx)
		if !ok {
			return nil
		}
		r.dispatch(ev)
	}
}

func (r *Router) dispatch(ev Event) {
	kind := eventKind(ev)
	r.metrics.EventsRouted.WithLabelValues(kind).Inc()

	switch ev := ev.(type) {
	case FocusTab:
		r.forward(ev.TabID, focusCommand{})
	case UpdateIndex:
		r.forward(ev.TabID, updateCommand{updated: ev.Updated, removed: ev.Removed})
	case Query:
		r.forward(ev.TabID, queryCommand{text: ev.Text})
	case CloseTab:
		r.closeTab(ev.TabID)
	case ScoreResult:
		if err := r.scores.Send(ev); err != nil {
			r.drop(kind, ev.TabID, "output_closed", err)
		}
	case VocabularyUpdate:
		// Forwarded whether or not this tab is the one Talon last saw;
		// the Talon side keys its hint list by tab.
		if err := r.vocabulary.Send(ev); err != nil {
			r.drop(kind, ev.TabID, "talon_closed", err)
		}
	default:
		r.logger.Warn("unknown event", slog.String("type", fmt.Sprintf("%T", ev)))
	}
}

// forward delivers cmd to the tab's worker, spawning it on first use.
func (r *Router) forward(tabID TabID, cmd command) {
	w, ok := r.workers[tabID]
	if !ok {
		if r.wasClosed(tabID) {
			r.drop("command", tabID, "closed_tab", nil)
			return
		}
		w = r.spawn(tabID)
	}
	if err := w.inbox.Send(cmd); err != nil {
		r.drop("command", tabID, "worker_gone", err)
	}
}

func (r *Router) spawn(tabID TabID) *worker {
	w := newWorker(tabID, r.inbox, r.logger, r.metrics)
	r.workers[tabID] = w
	r.metrics.WorkersSpawned.Inc()
	r.metrics.WorkersActive.Inc()
	r.logger.Debug("spawned tab worker", slog.Uint64("tab_id", uint64(tabID)))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		w.run()
	}()
	return w
}

// closeTab terminates the tab's worker and removes it from the registry.
// A CloseTab for a tab without a worker spawns nothing.
func (r *Router) closeTab(tabID TabID) {
	if r.closed != nil {
		r.closed.Add(tabID, struct{}{})
	}
	w, ok := r.workers[tabID]
	if !ok {
		return
	}
	delete(r.workers, tabID)
	r.metrics.WorkersActive.Dec()
	if err := w.inbox.Send(closeCommand{}); err != nil {
		r.drop("close_tab", tabID, "worker_gone", err)
	}
	r.logger.Debug("closed tab worker", slog.Uint64("tab_id", uint64(tabID)))
}

func (r *Router) wasClosed(tabID TabID) bool {
	return r.closed != nil && r.closed.Contains(tabID)
}

func (r *Router) drop(kind string, tabID TabID, reason string, err error) {
	r.metrics.EventsDropped.WithLabelValues(reason).Inc()
	attrs := []any{
		slog.String("kind", kind),
		slog.Uint64("tab_id", uint64(tabID)),
		slog.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	r.logger.Debug("dropped event", attrs...)
}

func (r *Router) shutdown() {
	r.inbox.Close()
	for tabID, w := range r.workers {
		w.inbox.Close()
		delete(r.workers, tabID)
		r.metrics.WorkersActive.Dec()
	}
	r.wg.Wait()
	r.logger.Debug("router stopped")
}
