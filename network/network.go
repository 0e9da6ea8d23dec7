package network

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"arena/protocol"
	"arena/room"
)

type HandlerConfig struct {
	Logger       *log.Logger
	DefaultRoom  string
	ReadLimit    int64
	SendQueue    int
	PingInterval time.Duration
}

// Handler upgrades /ws requests and shuttles frames between a websocket and
// a room. It never touches world state; it only posts room commands.
type Handler struct {
	rooms    *room.Manager
	cfg      HandlerConfig
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(rooms *room.Manager, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.DefaultRoom == "" {
		cfg.DefaultRoom = "LOBBY"
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 10
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 64
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	return &Handler{
		rooms:  rooms,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// For dev, allow all origins. Lock this down in prod.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		code = h.cfg.DefaultRoom
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade: %v", err)
		return
	}

	s := newSession(conn, h.cfg.SendQueue)
	rm := h.attach(code, s)
	if rm == nil {
		h.logger.Printf("session %s: room %s unavailable", s.id, code)
		s.closeWith(websocket.CloseTryAgainLater, "room unavailable")
		s.writeLoop(h.cfg.PingInterval)
		return
	}
	go s.writeLoop(h.cfg.PingInterval)
	h.readLoop(rm, s)
}

// attach registers the session with the room. A room that emptied and
// stopped between lookup and connect is recreated once.
func (h *Handler) attach(code string, s *session) *room.Room {
	for range 2 {
		rm := h.rooms.GetOrCreateRoom(code)
		if rm != nil && rm.Post(room.Connect{ClientID: s.id, Conn: s}) {
			return rm
		}
	}
	return nil
}

// readLoop decodes client frames until the socket fails or the client
// breaks the protocol. Either way the room is told the client left.
func (h *Handler) readLoop(rm *room.Room, s *session) {
	defer func() {
		rm.Post(room.Disconnect{ClientID: s.id})
		_ = s.Close()
	}()

	readWait := h.cfg.PingInterval * 12 / 5
	conn := s.ws
	conn.SetReadLimit(h.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Printf("session %s: read: %v", s.id, err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			h.logger.Printf("session %s: protocol violation: non-binary frame", s.id)
			s.closeWith(websocket.CloseUnsupportedData, "binary frames only")
			return
		}
		packet, err := protocol.DecodeClient(msg)
		if err != nil {
			h.logger.Printf("session %s: protocol violation: %v", s.id, err)
			s.closeWith(websocket.CloseProtocolError, "malformed packet")
			return
		}
		if !rm.Post(room.Packet{ClientID: s.id, Packet: packet}) {
			return
		}
	}
}
