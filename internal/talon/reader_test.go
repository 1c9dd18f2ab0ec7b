package talon

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/voicesurf/voicesurf/internal/errors"
	"github.com/voicesurf/voicesurf/internal/metrics"
	"github.com/voicesurf/voicesurf/internal/router"
	"github.com/voicesurf/voicesurf/internal/watcher"
)

func writeQuery(t *testing.T, p Paths, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(p.Output, []byte(content), 0o644))
}

func nextEvent(t *testing.T, sink *router.Mailbox[router.Event]) router.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	ev, ok := sink.Receive(ctx)
	require.True(t, ok, "timeout waiting for query")
	return ev
}

func startReader(t *testing.T, p Paths, m *metrics.Metrics) (*router.Mailbox[router.Event], <-chan error) {
	t.Helper()
	sink := router.NewMailbox[router.Event]()
	r := NewReader(p, sink, watcher.DefaultOptions(), m)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case <-r.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("reader never started watching")
	}
	return sink, done
}

func TestReader_ForwardsQueries(t *testing.T) {
	// Given: a reader watching the output directory
	p := testPaths(t)
	sink, _ := startReader(t, p, nil)

	// When: Talon writes a query
	writeQuery(t, p, `{"Query":{"query":"example","tabId":3}}`)

	// Then: the router receives it
	assert.Equal(t, router.Query{TabID: 3, Text: "example"}, nextEvent(t, sink))
}

func TestReader_SkipsEmptyAndTablessQueries(t *testing.T) {
	p := testPaths(t)
	m := metrics.New()
	sink, _ := startReader(t, p, m)

	// When: an empty file and a query without a tab precede a real one
	writeQuery(t, p, ``)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.TalonQueryReads.WithLabelValues("empty")) > 0
	}, 2*time.Second, 10*time.Millisecond)
	writeQuery(t, p, `{"Query":{"query":"ignored","tabId":null}}`)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.TalonQueryReads.WithLabelValues("no_tab")) > 0
	}, 2*time.Second, 10*time.Millisecond)
	writeQuery(t, p, `{"Query":{"query":"kept","tabId":9}}`)

	// Then: only the query with a tab is forwarded
	assert.Equal(t, router.Query{TabID: 9, Text: "kept"}, nextEvent(t, sink))
}

func TestReader_MalformedQueryIsFatal(t *testing.T) {
	p := testPaths(t)
	_, done := startReader(t, p, nil)

	writeQuery(t, p, `{"Query":`)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, herrors.ErrCodeProtocolViolation, herrors.GetCode(err))
	case <-time.After(3 * time.Second):
		t.Fatal("reader kept running after a malformed query")
	}
}

func TestReader_MissingOutputDirIsIsolated(t *testing.T) {
	// Given: a runtime root without an output directory
	p := NewPaths(t.TempDir(), "")
	r := NewReader(p, router.NewMailbox[router.Event](), watcher.DefaultOptions(), nil)

	// When/Then: the reader gives up without an error
	assert.NoError(t, r.Run(context.Background()))
}

func TestReader_StopsWhenRouterCloses(t *testing.T) {
	p := testPaths(t)
	sink, done := startReader(t, p, nil)
	sink.Close()

	writeQuery(t, p, `{"Query":{"query":"example","tabId":3}}`)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("reader kept running after router closed")
	}
}

func TestReader_StoppedCountsWatcherOverflow(t *testing.T) {
	// Given: a reader whose watcher lost events to a full buffer
	p := testPaths(t)
	m := metrics.New()
	r := NewReader(p, router.NewMailbox[router.Event](), watcher.DefaultOptions(), m)
	overflow := m.EventsDropped.WithLabelValues("watcher_overflow")

	// When: the reader shuts down, once clean and once after overflow
	r.stopped(p.OutputDir(), 0)
	assert.Zero(t, testutil.ToFloat64(overflow))
	r.stopped(p.OutputDir(), 3)

	// Then: the lost events are counted as dropped
	assert.Equal(t, 3.0, testutil.ToFloat64(overflow))
}

func TestReadQuery_MissingFile(t *testing.T) {
	p := testPaths(t)
	r := NewReader(p, router.NewMailbox[router.Event](), watcher.DefaultOptions(), nil)

	_, found, err := r.ReadQuery()

	require.NoError(t, err)
	assert.False(t, found)
}
