package server

import (
	"errors"
	"sync"
)

var ErrMailboxFull = errors.New("offline mailbox full")

// offlineMailbox stores fully formatted envelopes for recipients with
// no live session, FIFO per recipient. A queue exists only while it
// holds at least one message: absence and empty are the same state.
type offlineMailbox struct {
	mu     sync.Mutex
	queues map[string][]string
	cap    int
}

func newOfflineMailbox(capacity int) *offlineMailbox {
	return &offlineMailbox{queues: make(map[string][]string), cap: capacity}
}

// enqueue appends an envelope to the recipient's queue, creating it if
// absent. When the per-user cap is reached the new message is dropped.
func (m *offlineMailbox) enqueue(recipient, envelope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[recipient]
	if len(q) >= m.cap {
		return ErrMailboxFull
	}
	m.queues[recipient] = append(q, envelope)
	return nil
}

// drain removes and returns the recipient's whole queue in insertion
// order. Returns nil when nothing is pending.
func (m *offlineMailbox) drain(recipient string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[recipient]
	delete(m.queues, recipient)
	return q
}

// pending reports how many envelopes are queued for recipient.
func (m *offlineMailbox) pending(recipient string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[recipient])
}
