package server

import (
	"errors"
	"log"
	"strconv"

	"chatrelay/directory"
	"chatrelay/protocol"
)

func (s *Server) handleRequest(c *client, req *protocol.Request) {
	switch req.Kind {
	case protocol.KindLogin:
		s.handleLogin(c, req)
	case protocol.KindLogout:
		s.handleLogout(c, req)
	case protocol.KindRegister:
		s.handleRegister(c, req)
	case protocol.KindSend:
		s.handleSend(c, req)
	case protocol.KindGroupMsg:
		s.handleGroupMessage(c, req)
	case protocol.KindCreateGroup:
		s.handleCreateGroup(c, req)
	case protocol.KindJoinGroup:
		s.handleJoinGroup(c, req)
	case protocol.KindSnapshot:
		s.sendSnapshot(c)
	case protocol.KindGroupFileList:
		s.handleGroupFileList(c, req)
	case protocol.KindGroupFilePort:
		c.send("FILE_PORT " + strconv.Itoa(s.config.FilePort))
	case protocol.KindFileRelay:
		s.handleFileRelay(c, req)
	default:
		log.Printf("Unhandled request kind %d (conn %s)", req.Kind, c.id)
	}
}

// handleLogin establishes the session. The newest login always wins:
// a prior connection for the same account receives exactly one
// ACCOUNT_CONFLICT notice but is not force-closed; disconnecting is
// left to that client.
func (s *Server) handleLogin(c *client, req *protocol.Request) {
	// A session must always reference a known account.
	if !s.users.Exists(req.Username) {
		c.send(protocol.FormatError("unknown user"))
		return
	}

	c.username = req.Username
	s.users.SetOnline(req.Username, true)

	// Snapshot first, then the offline backlog, then presence.
	s.sendSnapshot(c)
	evicted := s.router.connect(req.Username, c)
	if evicted != nil {
		evicted.send(protocol.AccountConflict)
		log.Printf("User %s logged in from conn %s, displacing conn %s", req.Username, c.id, evicted.id)
	}

	s.router.broadcastAll(protocol.FormatStatusOn(req.Username))
	log.Printf("User %s logged in (%d online)", req.Username, s.sessions.count())
}

// handleLogout serves explicit logout requests. The displaced variant
// is a deliberate no-op: it only tells the server that the old client
// noticed the conflict notice, and must neither clear the newly active
// session nor re-broadcast an offline status.
func (s *Server) handleLogout(c *client, req *protocol.Request) {
	if req.Logout == protocol.LogoutDisplaced {
		log.Printf("User %s logged in elsewhere, old client acknowledged (conn %s)", req.Username, c.id)
		return
	}

	if !s.sessions.remove(req.Username) {
		return
	}
	s.users.SetOnline(req.Username, false)
	s.router.broadcastAll(protocol.FormatStatusOff(req.Username))
	log.Printf("User %s logged out", req.Username)
}

func (s *Server) handleRegister(c *client, req *protocol.Request) {
	err := s.users.Register(req.Username, req.Password)
	if errors.Is(err, directory.ErrUserExists) {
		c.send(protocol.FormatError("user already exists"))
		return
	}

	s.router.broadcastAll(protocol.UserListUpdated)
	log.Printf("New user registered: %s", req.Username)
}

func (s *Server) handleSend(c *client, req *protocol.Request) {
	if c.username == "" {
		log.Printf("Dropping SEND from unauthenticated conn %s", c.id)
		return
	}
	s.router.routeDirect(c.username, req.Recipient, req.Content)
}

func (s *Server) handleGroupMessage(c *client, req *protocol.Request) {
	if c.username == "" {
		log.Printf("Dropping GROUP_MSG from unauthenticated conn %s", c.id)
		return
	}
	s.router.routeGroup(c.username, req.GroupID, req.Content)
}

func (s *Server) handleCreateGroup(c *client, req *protocol.Request) {
	g, err := s.groups.Create(req.GroupID, req.GroupName, req.Username, req.Members)
	if errors.Is(err, directory.ErrGroupExists) {
		c.send(protocol.FormatError("group id already exists"))
		return
	}

	log.Printf("Group %q created (id %s) by %s", g.Name, g.ID, g.Creator)

	// Tell each online initial member, then push the new directory
	// record to everyone.
	s.router.broadcastToMembers(g, protocol.FormatGroupJoined(g.ID, g.Name))
	s.router.broadcastAll(protocol.FormatGroupRecord(&g))
}

func (s *Server) handleJoinGroup(c *client, req *protocol.Request) {
	g, err := s.groups.AddMember(req.GroupID, req.Username)
	switch {
	case errors.Is(err, directory.ErrGroupNotFound):
		c.send(protocol.FormatError("group not found"))
		return
	case errors.Is(err, directory.ErrAlreadyMember):
		c.send(protocol.FormatInfo("already a member"))
		return
	}

	s.router.broadcastAll(protocol.FormatGroupRecord(&g))
	s.router.broadcastToMembers(g, protocol.FormatMemberJoined(g.ID, g.Name, req.Username))
	log.Printf("User %s joined group %s", req.Username, g.ID)
}

// sendSnapshot delivers the full account list and every group record
// to one connection, without logging it in.
func (s *Server) sendSnapshot(c *client) {
	c.send(protocol.FormatUserList(s.users.All()))
	for _, g := range s.groups.All() {
		record := g
		c.send(protocol.FormatGroupRecord(&record))
	}
}

func (s *Server) handleGroupFileList(c *client, req *protocol.Request) {
	files, err := s.files.list(req.GroupID)
	if err != nil {
		log.Printf("Listing files for group %s failed: %v", req.GroupID, err)
	}
	c.send(protocol.FormatGroupFileList(req.GroupID, files))
}

// handleFileRelay forwards a peer-to-peer file negotiation line
// verbatim to the named recipient, if online. The actual byte transfer
// happens between the peers, outside this server.
func (s *Server) handleFileRelay(c *client, req *protocol.Request) {
	if c.username == "" {
		log.Printf("Dropping file relay from unauthenticated conn %s", c.id)
		return
	}
	if dst, ok := s.sessions.get(req.Recipient); ok {
		dst.send(req.Raw)
	}
}
