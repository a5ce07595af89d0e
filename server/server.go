package server

import (
	"bufio"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatrelay/directory"
	"chatrelay/protocol"
)

type Server struct {
	config   *ServerConfig
	users    *directory.Users
	groups   *directory.Groups
	sessions *sessionRegistry
	mailbox  *offlineMailbox
	router   *router
	files    *fileCatalog
}

type ServerConfig struct {
	Port int
	// ReadTimeout of zero disables the read deadline: a stalled client
	// then holds its connection goroutine blocked indefinitely.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	OfflineQueueCap int
	FilesRoot       string
	FilePort        int
}

// client is the per-connection handling state: the socket and the
// authenticated username once login succeeds. Both belong to the
// connection's own read-loop goroutine; transient request state stays
// on the decoded request and never leaves the dispatch.
type client struct {
	id           string
	conn         net.Conn
	username     string
	writeTimeout time.Duration
	mu           sync.Mutex
}

// send writes one protocol line. Writes from the connection's own
// worker and from broadcasts are serialized per connection; a write
// error is logged and left to the read loop to surface as teardown.
func (c *client) send(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		log.Printf("Error writing to conn %s: %v", c.id, err)
	}
}

func New(users *directory.Users, groups *directory.Groups, config *ServerConfig) *Server {
	if config.OfflineQueueCap == 0 {
		config.OfflineQueueCap = 1000
	}
	if config.FilePort == 0 {
		config.FilePort = 9000
	}

	sessions := newSessionRegistry()
	mailbox := newOfflineMailbox(config.OfflineQueueCap)

	return &Server{
		config:   config,
		users:    users,
		groups:   groups,
		sessions: sessions,
		mailbox:  mailbox,
		router:   newRouter(sessions, mailbox, groups),
		files:    newFileCatalog(config.FilesRoot),
	}
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(s.config.Port))
	if err != nil {
		return err
	}
	defer listener.Close()

	log.Printf("Chat relay started on port %d", s.config.Port)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("Error accepting connection: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection owns the single inbound read loop for one
// connection. An I/O failure while reading is an implicit voluntary
// logout of the bound username followed by teardown; other sessions
// and the accept loop are unaffected.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	c := &client{
		id:           uuid.NewString()[:8],
		conn:         conn,
		writeTimeout: s.config.WriteTimeout,
	}

	remoteAddr := conn.RemoteAddr().String()
	log.Printf("New client connected from %s (conn %s)", remoteAddr, c.id)

	reader := bufio.NewReader(conn)
	for {
		if s.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF && !strings.Contains(err.Error(), "use of closed network connection") {
				log.Printf("Error reading from %s (conn %s): %v", remoteAddr, c.id, err)
			}
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		log.Printf("Received from %s (conn %s): %q", remoteAddr, c.id, line)

		req, err := protocol.Parse(line)
		if err != nil {
			// Malformed and unknown commands are dropped; the
			// connection stays open.
			log.Printf("Ignoring line from %s (conn %s): %v", remoteAddr, c.id, err)
			continue
		}

		s.handleRequest(c, req)
	}

	s.teardown(c, remoteAddr)
}

// teardown runs the implicit-logout path when a connection goes away.
// If the session was already displaced by a newer login the registry
// is left untouched and no presence change is broadcast.
func (s *Server) teardown(c *client, remoteAddr string) {
	if c.username == "" {
		log.Printf("Client disconnected from %s (conn %s)", remoteAddr, c.id)
		return
	}

	if s.sessions.unbind(c.username, c) {
		s.users.SetOnline(c.username, false)
		s.router.broadcastAll(protocol.FormatStatusOff(c.username))
		log.Printf("Client %s disconnected from %s (conn %s)", c.username, remoteAddr, c.id)
	} else {
		log.Printf("Displaced connection for %s closed (conn %s)", c.username, c.id)
	}
}

// GetStats returns server statistics as a formatted string.
func (s *Server) GetStats() string {
	users := s.sessions.usernames()
	return "connections=" + strconv.Itoa(len(users)) + ",users=" + strings.Join(users, ";")
}

// Shutdown notifies every session, marks the accounts offline and
// closes the connections.
func (s *Server) Shutdown(reason string) {
	log.Printf("Shutting down: %s", reason)
	for _, username := range s.sessions.usernames() {
		c, ok := s.sessions.get(username)
		if !ok {
			continue
		}
		c.send(protocol.FormatInfo("server shutting down: " + reason))
		s.sessions.remove(username)
		s.users.SetOnline(username, false)
		c.conn.Close()
	}
}
