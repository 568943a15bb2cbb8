package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/moodsync/server/internal/relay"
	"github.com/moodsync/server/pkg/logger"
)

// Relay is implemented by *relay.Relay.
type Relay interface {
	Join(roomID string, p relay.Peer)
	Leave(roomID string, p relay.Peer)
	Broadcast(roomID string, msg []byte, sender relay.Peer)
}

type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadLimit      int64
	AllowedOrigins []string // empty or "*": any origin
}

type Server struct {
	upgrader websocket.Upgrader
	relay    Relay
	cfg      Config

	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

func NewServer(r Relay, cfg Config) *Server {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}

	s := &Server{
		relay: r,
		cfg:   cfg,
		conns: make(map[*wsConn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// HandleWS serves GET /ws/{room_id}. Every text frame is relayed verbatim to the rest of the room.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimSpace(chi.URLParam(r, "room_id"))
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}
	log := logger.FromContext(r.Context()).With(slog.String("room", roomID))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Warn("ws upgrade failed", slog.Any("err", err))
		return
	}

	c := newWsConn(conn, s.cfg.WriteTimeout)
	s.track(c)
	s.relay.Join(roomID, c)
	log.Debug("ws peer joined")

	defer func() {
		s.relay.Leave(roomID, c)
		s.untrack(c)
		if err := c.Close(); err != nil {
			log.Debug("ws close failed", slog.Any("err", err))
		}
		log.Debug("ws peer left")
	}()

	go s.pingLoop(c)
	s.readLoop(log, roomID, c)
}

func (s *Server) readLoop(log *slog.Logger, roomID string, c *wsConn) {
	c.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Debug("ws read failed", slog.Any("err", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		s.relay.Broadcast(roomID, data, c)
	}
}

func (s *Server) pingLoop(c *wsConn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// Shutdown sends a going-away close frame to every open connection.
// Their read loops then exit and leave their rooms.
func (s *Server) Shutdown() {
	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
		_ = c.Close()
	}
}

// Active returns the number of open connections.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) track(c *wsConn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *wsConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
