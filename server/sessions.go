package server

import "sync"

// sessionRegistry maps each username to its single live connection.
// The single sign-on contract lives in bind: the newest login always
// takes the slot and the previous holder is returned for notification.
type sessionRegistry struct {
	mu     sync.RWMutex
	byUser map[string]*client
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byUser: make(map[string]*client)}
}

// bind atomically makes c the session for username and returns the
// displaced connection, if any.
func (r *sessionRegistry) bind(username string, c *client) *client {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.byUser[username]
	r.byUser[username] = c
	if old == c {
		return nil
	}
	return old
}

// unbind removes the username's session entry. It reports false when
// the entry is absent or held by a different connection, so the
// teardown of a displaced connection never clears the active session.
func (r *sessionRegistry) unbind(username string, c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byUser[username]; !ok || cur != c {
		return false
	}
	delete(r.byUser, username)
	return true
}

// remove drops the username's session entry unconditionally, for
// explicit logout requests.
func (r *sessionRegistry) remove(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[username]; !ok {
		return false
	}
	delete(r.byUser, username)
	return true
}

func (r *sessionRegistry) get(username string) (*client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[username]
	return c, ok
}

// snapshot returns every live session connection.
func (r *sessionRegistry) snapshot() []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*client, 0, len(r.byUser))
	for _, c := range r.byUser {
		out = append(out, c)
	}
	return out
}

func (r *sessionRegistry) usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
