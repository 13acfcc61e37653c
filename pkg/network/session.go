package network

import (
	"bufio"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/burrowgame/burrow/pkg/log"
	"github.com/burrowgame/burrow/pkg/metrics"
	"github.com/burrowgame/burrow/pkg/protocol"
	"github.com/burrowgame/burrow/pkg/queue"
	"github.com/burrowgame/burrow/pkg/world"
)

// Handler receives session lifecycle events and inbound packets. The
// game server implements it.
type Handler interface {
	Connected(s *Session)
	// HandlePacket processes one packet; it is called from the
	// session's read loop, so one packet is fully processed before the
	// next is read.
	HandlePacket(s *Session, p protocol.Packet) bool
	Disconnected(s *Session)
}

// Session owns exactly one connection and one remote player. The
// player starts unbound; LOGIN binds its username. Outbound packets go
// through a per-session queue drained by a dedicated writer goroutine,
// so a stalled client never blocks whoever is broadcasting to it.
type Session struct {
	id      uuid.UUID
	conn    net.Conn
	player  *world.RemotePlayer
	handler Handler
	out     *queue.Outbound
	log     *log.Logger

	cacheLock  sync.Mutex
	cacheTypes map[protocol.PacketType]bool
	cached     []string

	closeOnce sync.Once
}

func NewSession(conn net.Conn, handler Handler) *Session {
	id := uuid.New()
	return &Session{
		id:      id,
		conn:    conn,
		player:  world.NewRemotePlayer(),
		handler: handler,
		out:     queue.NewOutbound(queue.OutboundBufferSize),
		log:     log.With("session", id.String()),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Log returns the session-scoped logger; entries carry the session id
// as a structured field.
func (s *Session) Log() *log.Logger { return s.log }

func (s *Session) Player() *world.RemotePlayer { return s.player }

func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// IsLoopback reports whether the client connected over the loopback
// interface, which is what designates the host player.
func (s *Session) IsLoopback() bool {
	switch addr := s.conn.RemoteAddr().(type) {
	case *net.TCPAddr:
		return addr.IP.IsLoopback()
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return false
		}
		ip := net.ParseIP(host)
		return ip != nil && ip.IsLoopback()
	}
}

// Run drives the session: the writer goroutine plus the blocking read
// loop. It returns when the connection is gone, after notifying the
// handler exactly once.
func (s *Session) Run() {
	s.handler.Connected(s)
	metrics.SessionsActive.Inc()

	go s.writeLoop()

	defer func() {
		s.EndConnection()
		metrics.SessionsActive.Dec()
		s.handler.Disconnected(s)
	}()

	reader := bufio.NewReader(s.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			s.log.Debug("read ended: %v", err)
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		packet, err := protocol.ParseLine(line)
		if err != nil {
			// Malformed frames become INVALID packets; the
			// dispatcher logs them and the loop keeps going.
			packet = protocol.Packet{Type: protocol.PacketInvalid, Data: err.Error()}
		}
		s.handler.HandlePacket(s, packet)
	}
}

// SendPacket serializes and sends a packet, or stages it in the packet
// cache if caching is active for its type. A send that cannot be
// queued means the client is dead or hopelessly behind; the session is
// torn down.
func (s *Session) SendPacket(t protocol.PacketType, data string) {
	line := protocol.Packet{Type: t, Data: data}.Encode()
	metrics.PacketsSent.WithLabelValues(t.String()).Inc()

	s.cacheLock.Lock()
	if s.cacheTypes[t] {
		s.cached = append(s.cached, line)
		s.cacheLock.Unlock()
		return
	}
	s.cacheLock.Unlock()

	if !s.out.Enqueue(line) {
		s.log.Warn("outbound queue rejected %s packet, ending connection", t)
		s.EndConnection()
	}
}

// SendError reports a failure to the client as an INVALID packet.
func (s *Session) SendError(message string) {
	s.SendPacket(protocol.PacketInvalid, message)
}

// CachePacketTypes starts caching outbound packets of the given types.
// Cached packets are batched into one physical write by FlushCache,
// which cuts per-packet framing overhead for bulk transfers.
func (s *Session) CachePacketTypes(types ...protocol.PacketType) {
	s.cacheLock.Lock()
	defer s.cacheLock.Unlock()
	s.cacheTypes = make(map[protocol.PacketType]bool, len(types))
	for _, t := range types {
		s.cacheTypes[t] = true
	}
}

// FlushCache writes all cached packets as one batched write and
// deactivates caching.
func (s *Session) FlushCache() {
	s.cacheLock.Lock()
	cached := s.cached
	s.cached = nil
	s.cacheTypes = nil
	s.cacheLock.Unlock()

	if len(cached) == 0 {
		return
	}
	if !s.out.Enqueue(strings.Join(cached, "\n")) {
		s.log.Warn("outbound queue rejected cached batch, ending connection")
		s.EndConnection()
	}
}

// EndConnection closes the session. It is idempotent; the read loop
// notices the closed connection and performs the one-time teardown.
func (s *Session) EndConnection() {
	s.closeOnce.Do(func() {
		s.out.Close()
		s.conn.Close()
	})
}

func (s *Session) writeLoop() {
	for {
		line, ok := s.out.Dequeue()
		if !ok {
			return
		}
		if _, err := s.conn.Write([]byte(line + "\n")); err != nil {
			s.log.Debug("write failed: %v", err)
			s.EndConnection()
			return
		}
	}
}
