package server

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"chatrelay/directory"
	"chatrelay/models"
	"chatrelay/protocol"
)

// router decides, for each outbound message, between immediate
// delivery and the offline mailbox, and performs group fan-out.
//
// mu is the critical section shared by connect and routeDirect: the
// login-time drain and the deliver-or-enqueue decision are mutually
// exclusive, so a message can neither be lost between "recipient is
// offline" and the enqueue, nor overtake envelopes drained from the
// queue by the same sender.
type router struct {
	mu       sync.Mutex
	sessions *sessionRegistry
	mailbox  *offlineMailbox
	groups   *directory.Groups
}

func newRouter(sessions *sessionRegistry, mailbox *offlineMailbox, groups *directory.Groups) *router {
	return &router{
		sessions: sessions,
		mailbox:  mailbox,
		groups:   groups,
	}
}

// connect makes c the session holder for username and drains the
// offline queue to it, in one critical section. The displaced previous
// connection, if any, is returned for the conflict notice.
func (r *router) connect(username string, c *client) *client {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := r.sessions.bind(username, c)

	pending := r.mailbox.drain(username)
	if len(pending) == 0 {
		return evicted
	}

	c.send(fmt.Sprintf("SYSTEM: you have %d offline messages, delivering...", len(pending)))
	for _, envelope := range pending {
		c.send(envelope)
	}
	c.send("SYSTEM: offline message delivery complete.")
	log.Printf("Delivered %d offline messages to %s", len(pending), username)

	return evicted
}

// routeDirect formats the canonical direct envelope and either hands
// it to the recipient's live connection or queues it verbatim, so the
// later replay needs no re-formatting.
func (r *router) routeDirect(sender, recipient, content string) {
	envelope := protocol.FormatDirect(sender, recipient, content)

	r.mu.Lock()
	if dst, ok := r.sessions.get(recipient); ok {
		r.mu.Unlock()
		dst.send(envelope)
		return
	}
	err := r.mailbox.enqueue(recipient, envelope)
	r.mu.Unlock()

	if errors.Is(err, ErrMailboxFull) {
		log.Printf("Offline mailbox for %s is full, dropping message from %s", recipient, sender)
		return
	}
	log.Printf("Queued offline message for %s: %s", recipient, envelope)
}

// routeGroup fans a group envelope out to every member with a live
// session. An unknown group or a non-member sender is a complete
// no-op. Members without a session receive nothing: group messages are
// never queued offline, unlike direct messages.
func (r *router) routeGroup(sender, groupID, content string) {
	g, ok := r.groups.FindByID(groupID)
	if !ok || !g.IsMember(sender) {
		log.Printf("Dropping group message from %s to %s (unknown group or not a member)", sender, groupID)
		return
	}

	envelope := protocol.FormatGroupMessage(sender, g.ID, g.Name, content)
	r.broadcastToMembers(g, envelope)
}

// broadcastAll sends line to every live session.
func (r *router) broadcastAll(line string) {
	for _, c := range r.sessions.snapshot() {
		c.send(line)
	}
}

// broadcastToMembers sends line to every group member with a session.
func (r *router) broadcastToMembers(g models.Group, line string) {
	for _, member := range g.Members {
		if c, ok := r.sessions.get(member); ok {
			c.send(line)
		}
	}
}
