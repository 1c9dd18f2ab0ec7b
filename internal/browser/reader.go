package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/voicesurf/voicesurf/internal/metrics"
	"github.com/voicesurf/voicesurf/internal/router"
)

// InputReader decodes frames from the browser and forwards them to the
// router.
type InputReader struct {
	r        io.Reader
	sink     router.Sink[router.Event]
	maxBytes uint32
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewInputReader creates a reader over r. maxBytes bounds a frame's
// declared length; zero means DefaultMaxFrameBytes.
func NewInputReader(r io.Reader, sink router.Sink[router.Event], maxBytes uint32, m *metrics.Metrics) *InputReader {
	if maxBytes == 0 {
		maxBytes = DefaultMaxFrameBytes
	}
	if m == nil {
		m = metrics.New()
	}
	return &InputReader{
		r:        r,
		sink:     sink,
		maxBytes: maxBytes,
		logger:   slog.Default().With(slog.String("component", "browser_input")),
		metrics:  m,
	}
}

// Run reads until the stream ends (nil), a protocol violation (fatal error)
// or the router stops accepting events (nil). ctx is checked between
// frames; a read in progress cannot be interrupted.
func (ir *InputReader) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		payload, err := ir.ReadOne()
		if errors.Is(err, io.EOF) {
			ir.logger.Info("browser closed input stream")
			return nil
		}
		if err != nil {
			return err
		}

		ev, err := DecodeMessage(payload)
		if err != nil {
			return err
		}
		ir.logger.Debug("browser message", slog.Int("bytes", len(payload)))

		if err := ir.sink.Send(ev); err != nil {
			ir.logger.Info("router stopped accepting events", slog.String("error", err.Error()))
			return nil
		}
	}
}

// ReadOne reads a single raw frame payload.
func (ir *InputReader) ReadOne() ([]byte, error) {
	payload, err := ReadFrame(ir.r, ir.maxBytes)
	if err != nil {
		return nil, err
	}
	ir.metrics.FramesRead.Inc()
	return payload, nil
}
