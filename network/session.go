package network

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	uuid "github.com/satori/go.uuid"
)

var (
	ErrBackpressure = errors.New("network: send queue full")
	ErrClosed       = errors.New("network: connection closed")
)

const writeWait = 10 * time.Second

// session is one websocket connection as the room sees it. Send never
// blocks: frames go to a bounded queue drained by writeLoop.
type session struct {
	id   string
	ws   *websocket.Conn
	out  chan []byte
	done chan struct{}

	mu        deadlock.Mutex
	closed    bool
	closeCode int
	closeText string
}

func newSession(ws *websocket.Conn, queue int) *session {
	return &session{
		id:   uuid.Must(uuid.NewV4()).String(),
		ws:   ws,
		out:  make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

func (s *session) Send(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.out <- b:
		return nil
	default:
		return ErrBackpressure
	}
}

func (s *session) Close() error {
	s.closeWith(websocket.CloseNormalClosure, "")
	return nil
}

// closeWith closes the session; the first caller picks the close frame.
func (s *session) closeWith(code int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.closeCode = code
	s.closeText = text
	close(s.done)
}

// writeLoop owns all writes to the websocket, keepalive pings included.
// It flushes queued frames before closing the socket.
func (s *session) writeLoop(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	defer s.ws.Close()

	for {
		select {
		case b := <-s.out:
			if err := s.write(websocket.BinaryMessage, b); err != nil {
				_ = s.Close()
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				_ = s.Close()
				return
			}
		case <-s.done:
			for {
				select {
				case b := <-s.out:
					if s.write(websocket.BinaryMessage, b) != nil {
						return
					}
				default:
					s.mu.Lock()
					msg := websocket.FormatCloseMessage(s.closeCode, s.closeText)
					s.mu.Unlock()
					_ = s.write(websocket.CloseMessage, msg)
					return
				}
			}
		}
	}
}

func (s *session) write(kind int, b []byte) error {
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return s.ws.WriteMessage(kind, b)
}
