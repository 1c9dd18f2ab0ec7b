package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/index"
	"github.com/voicesurf/voicesurf/internal/metrics"
	"github.com/voicesurf/voicesurf/internal/router"
)

// OutputWriter ranks score results and writes them to the browser as
// frames. It is the only writer of its io.Writer.
type OutputWriter struct {
	w       io.Writer
	inbox   *router.Mailbox[router.ScoreResult]
	limit   int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewOutputWriter creates a writer reporting at most limit documents per
// result; a non-positive limit means index.DefaultRankLimit.
func NewOutputWriter(w io.Writer, limit int, m *metrics.Metrics) *OutputWriter {
	if limit <= 0 {
		limit = index.DefaultRankLimit
	}
	if m == nil {
		m = metrics.New()
	}
	return &OutputWriter{
		w:       w,
		inbox:   router.NewMailbox[router.ScoreResult](),
		limit:   limit,
		logger:  slog.Default().With(slog.String("component", "browser_output")),
		metrics: m,
	}
}

// Send queues a score result. It implements router.Sink.
func (ow *OutputWriter) Send(result router.ScoreResult) error {
	return ow.inbox.Send(result)
}

// Run writes queued results until ctx is cancelled. A write failure means
// the browser end of the pipe is gone and ends the writer with an error.
func (ow *OutputWriter) Run(ctx context.Context) error {
	defer ow.inbox.Close()
	for {
		result, ok := ow.inbox.Receive(ctx)
		if !ok {
			return nil
		}
		if err := ow.write(result); err != nil {
			return err
		}
	}
}

func (ow *OutputWriter) write(result router.ScoreResult) error {
	msg := Result{
		TabID: result.TabID,
		Best:  index.Rank(result.Scores, ow.limit),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return herrors.InternalError("encode browser result", err)
	}
	if err := WriteFrame(ow.w, payload); err != nil {
		return herrors.InternalError(fmt.Sprintf("write result for tab %d", result.TabID), err)
	}
	ow.metrics.FramesWritten.Inc()
	ow.logger.Debug("sent result to browser",
		slog.Uint64("tab_id", uint64(result.TabID)),
		slog.Int("best", len(msg.Best)))
	return nil
}
