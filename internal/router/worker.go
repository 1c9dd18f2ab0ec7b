package router

import (
	"context"
	"log/slog"

	"github.com/voicesurf/voicesurf/internal/index"
	"github.com/voicesurf/voicesurf/internal/metrics"
)

// workerState is the lifecycle of a tab worker.
type workerState int

const (
	workerActive workerState = iota
	workerTerminated
)

// worker exclusively owns one tab's index and applies its commands in
// arrival order on a single goroutine.
type worker struct {
	tabID   TabID
	inbox   *Mailbox[command]
	parent  Sink[Event]
	index   *index.Index
	state   workerState
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newWorker(tabID TabID, parent Sink[Event], logger *slog.Logger, m *metrics.Metrics) *worker {
	return &worker{
		tabID:   tabID,
		inbox:   NewMailbox[command](),
		parent:  parent,
		index:   index.New(),
		state:   workerActive,
		logger:  logger.With(slog.Uint64("tab_id", uint64(tabID))),
		metrics: m,
	}
}

// run processes commands until a close command arrives or the inbox is
// closed. Pending commands are not drained in either case.
func (w *worker) run() {
	for w.state == workerActive {
		cmd, ok := w.inbox.Receive(context.Background())
		if !ok {
			w.state = workerTerminated
			break
		}
		w.handle(cmd)
	}
	w.logger.Debug("tab worker stopped",
		slog.Int("docs", w.index.Len()),
		slog.Int("terms", w.index.Terms()))
}

func (w *worker) handle(cmd command) {
	switch cmd := cmd.(type) {
	case focusCommand:
		w.emitVocabulary()
	case updateCommand:
		for _, doc := range cmd.updated {
			w.index.Update(doc.ID, doc.Content)
		}
		for _, id := range cmd.removed {
			w.index.Remove(id)
		}
		w.logger.Debug("index updated",
			slog.Int("updated", len(cmd.updated)),
			slog.Int("removed", len(cmd.removed)),
			slog.Int("docs", w.index.Len()),
			slog.Int("terms", w.index.Terms()))
		w.emitVocabulary()
	case queryCommand:
		scores := w.index.Score(cmd.text)
		w.metrics.QueriesScored.Inc()
		w.emit(ScoreResult{TabID: w.tabID, Scores: scores})
	case closeCommand:
		w.state = workerTerminated
	default:
		w.logger.Warn("unknown worker command")
	}
}

func (w *worker) emitVocabulary() {
	w.emit(VocabularyUpdate{TabID: w.tabID, Words: w.index.Vocabulary()})
}

// emit hands a result back to the router. A closed router inbox only
// happens during shutdown, so the failure is dropped.
func (w *worker) emit(ev Event) {
	if err := w.parent.Send(ev); err != nil {
		w.logger.Debug("dropping worker output",
			slog.String("kind", eventKind(ev)),
			slog.String("error", err.Error()))
	}
}
