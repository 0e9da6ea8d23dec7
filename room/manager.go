package room

import (
	"crypto/rand"
	"log"
	"math/big"
	"slices"
	"strings"

	"github.com/sasha-s/go-deadlock"

	"arena/game"
)

// RoomCodeLength is the length of codes handed out by CreateRoom.
const RoomCodeLength = 6

// Unambiguous characters only: no 0/O or 1/I.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Clients int    `json:"clients"`
}

// Manager owns the running rooms of a server. Every room it starts shares the
// same world parameters and closes itself once its last client is gone.
type Manager struct {
	params game.Params
	logger *log.Logger

	mu    deadlock.RWMutex
	rooms map[string]*Room
}

func NewManager(params game.Params, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		params: params,
		logger: logger,
		rooms:  make(map[string]*Room),
	}
}

// GetOrCreateRoom returns the running room for code, starting one if needed.
// An empty code yields nil.
func (m *Manager) GetOrCreateRoom(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.rooms[code]; r != nil {
		return r
	}
	return m.startLocked(code)
}

func (m *Manager) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

// CreateRoom starts a room under a fresh random code and returns the code.
func (m *Manager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := newRoomCode()
	for m.rooms[code] != nil {
		code = newRoomCode()
	}
	m.startLocked(code)
	return code
}

// ListRooms reports every running room, ordered by code.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	infos := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		infos = append(infos, RoomInfo{Code: code, Players: r.NumPlayers(), Clients: r.NumClients()})
	}
	m.mu.RUnlock()

	slices.SortFunc(infos, func(a, b RoomInfo) int { return strings.Compare(a.Code, b.Code) })
	return infos
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		r.Stop()
		delete(m.rooms, code)
	}
}

func (m *Manager) startLocked(code string) *Room {
	r := New(m.params, m.logger)
	r.Code = code
	r.OnEmpty = m.closeIfEmpty
	m.rooms[code] = r
	go r.Run()
	m.logger.Printf("room %s: started", code)
	return r
}

// closeIfEmpty runs off the room goroutine. A client may have connected
// since the room reported empty, in which case the room stays.
func (m *Manager) closeIfEmpty(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[code]
	if r == nil || r.NumClients() > 0 {
		return
	}
	r.Stop()
	delete(m.rooms, code)
	m.logger.Printf("room %s: closed", code)
}

func newRoomCode() string {
	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	var sb strings.Builder
	sb.Grow(RoomCodeLength)
	for range RoomCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("room: crypto/rand failed: " + err.Error())
		}
		sb.WriteByte(roomCodeAlphabet[n.Int64()])
	}
	return sb.String()
}
