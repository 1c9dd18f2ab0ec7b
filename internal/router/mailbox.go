package router

import (
	"context"
	"errors"
	"sync"
)

// ErrMailboxClosed is returned by Send after Close.
var ErrMailboxClosed = errors.New("mailbox closed")

// Mailbox is an unbounded multi-producer, single-consumer FIFO queue.
// Send never blocks; messages from one producer are received in the order
// they were sent. There is no backpressure: a slow consumer lets the queue
// grow without limit.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{}
}

// NewMailbox creates an empty, open mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Send enqueues v. It fails only if the mailbox is closed.
func (m *Mailbox[T]) Send(v T) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMailboxClosed
	}
	m.items = append(m.items, v)
	m.mu.Unlock()
	m.signal()
	return nil
}

// Receive blocks until a message is available, the mailbox is closed, or
// ctx is done. The boolean is false in the latter two cases. Messages still
// queued when the mailbox is closed are discarded, not drained.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, bool) {
	var zero T
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return zero, false
		}
		if len(m.items) > 0 {
			v := m.items[0]
			m.items[0] = zero
			m.items = m.items[1:]
			if len(m.items) == 0 {
				m.items = nil
			}
			m.mu.Unlock()
			return v, true
		}
		m.mu.Unlock()

		select {
		case <-m.ready:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// Close marks the mailbox closed and wakes the consumer. Safe to call more
// than once.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.items = nil
	m.mu.Unlock()
	m.signal()
}

// Len returns the number of queued messages.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Mailbox[T]) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
