package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMailboxFIFOAndDrain(t *testing.T) {
	m := newOfflineMailbox(10)

	require.NoError(t, m.enqueue("bob", "MSG:alice:bob:m1"))
	require.NoError(t, m.enqueue("bob", "MSG:alice:bob:m2"))
	require.NoError(t, m.enqueue("bob", "MSG:carol:bob:m3"))
	require.Equal(t, 3, m.pending("bob"))

	got := m.drain("bob")
	require.Equal(t, []string{"MSG:alice:bob:m1", "MSG:alice:bob:m2", "MSG:carol:bob:m3"}, got)

	// Drain removes the queue entirely; absence equals empty.
	require.Equal(t, 0, m.pending("bob"))
	require.Nil(t, m.drain("bob"))
}

func TestMailboxCapDropsOverflow(t *testing.T) {
	m := newOfflineMailbox(2)

	require.NoError(t, m.enqueue("bob", "m1"))
	require.NoError(t, m.enqueue("bob", "m2"))
	require.ErrorIs(t, m.enqueue("bob", "m3"), ErrMailboxFull)

	require.Equal(t, []string{"m1", "m2"}, m.drain("bob"))

	// The cap is per recipient.
	require.NoError(t, m.enqueue("carol", "m1"))
}

func TestSessionRegistryBindAndUnbind(t *testing.T) {
	r := newSessionRegistry()
	a := &client{id: "a"}
	b := &client{id: "b"}

	require.Nil(t, r.bind("alice", a))
	require.Same(t, a, r.bind("alice", b), "newest login takes the slot")

	// The displaced connection cannot clear the active session.
	require.False(t, r.unbind("alice", a))
	cur, ok := r.get("alice")
	require.True(t, ok)
	require.Same(t, b, cur)

	require.True(t, r.unbind("alice", b))
	_, ok = r.get("alice")
	require.False(t, ok)
}

func TestSessionRegistryRebindSameConnection(t *testing.T) {
	r := newSessionRegistry()
	a := &client{id: "a"}

	require.Nil(t, r.bind("alice", a))
	require.Nil(t, r.bind("alice", a), "re-login from the same connection evicts nobody")
	require.Equal(t, 1, r.count())
}
