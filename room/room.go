package room

import (
	"bytes"
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"arena/game"
	"arena/protocol"
)

var ErrStopped = errors.New("room: stopped")

type Room struct {
	Inbox   chan any
	Code    string            // room code (e.g. "ABC123")
	OnEmpty func(code string) // called when the last client leaves

	tickHz  int
	world   *game.World
	clients map[string]*Client
	order   []*Client
	nextSeq int
	writer  *protocol.Writer
	logger  *log.Logger

	numClients atomic.Int32
	numPlayers atomic.Int32

	quit     chan struct{}
	stopOnce sync.Once
}

func New(params game.Params, logger *log.Logger) *Room {
	if logger == nil {
		logger = log.Default()
	}
	tickHz := params.TickHz
	if tickHz <= 0 {
		tickHz = game.DefaultTickHz
	}
	world := game.NewWorld(params, logger)
	world.Populate()
	return &Room{
		Inbox:   make(chan any, 256),
		tickHz:  tickHz,
		world:   world,
		clients: make(map[string]*Client),
		nextSeq: 1,
		writer:  protocol.NewWriter(),
		logger:  logger,
		quit:    make(chan struct{}),
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// NumPlayers returns the number of clients that joined with a player.
func (r *Room) NumPlayers() int {
	return int(r.numPlayers.Load())
}

func (r *Room) NumClients() int {
	return int(r.numClients.Load())
}

// World exposes the simulation. Only the room goroutine may touch it while
// the room is running.
func (r *Room) World() *game.World {
	return r.world
}

// Post delivers a command to the room goroutine. It reports false once the
// room has stopped.
func (r *Room) Post(cmd any) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// Snapshot asks the running room for a debug snapshot.
func (r *Room) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if !r.Post(SnapshotRequest{Reply: reply}) {
		return Snapshot{}, ErrStopped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.quit:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (r *Room) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(r.tickHz))
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			r.shutdown()
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Connect:
		r.connect(c)
	case Packet:
		if cl, ok := r.clients[c.ClientID]; ok {
			cl.record(c.Packet)
		}
	case Disconnect:
		if cl, ok := r.clients[c.ClientID]; ok {
			cl.leaving = true
		}
	case Kill:
		if cl, ok := r.clients[c.ClientID]; ok {
			cl.killPending = true
		}
	case SnapshotRequest:
		c.Reply <- r.snapshot()
	default:
		r.logger.Printf("room %s: unknown command %T", r.Code, cmd)
	}
}

func (r *Room) connect(c Connect) {
	if _, exists := r.clients[c.ClientID]; exists {
		r.logger.Printf("room %s: duplicate client %s", r.Code, c.ClientID)
		_ = c.Conn.Close()
		return
	}
	cl := newClient(c.ClientID, c.Conn, r.nextSeq)
	r.nextSeq++
	r.clients[cl.ID] = cl
	r.order = append(r.order, cl)
	r.numClients.Store(int32(len(r.clients)))
	r.send(cl, protocol.EncodeInit(uint32(r.world.Params.WorldSize)))
}

// tick runs one simulation step in fixed order: physics, ropes, index and
// collisions, then client sync, then pending joins and inputs, then the
// tick counter. Clients marked for removal are dropped after the walk.
func (r *Room) tick() {
	game.Step(r.world)
	for _, c := range r.order {
		r.syncClient(c)
	}
	for _, c := range r.order {
		r.applyPending(c)
	}
	r.world.Advance()
	r.reap()
}

// syncClient sends one client its view update. A failure is contained to
// that client, which is then dropped.
func (r *Room) syncClient(c *Client) {
	if c.leaving || c.player == 0 {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("room %s: sync for client %s failed: %v", r.Code, c.ID, rec)
			c.leaving = true
		}
	}()

	if p, ok := r.world.Get(c.player); ok {
		c.lastCenter = p.Pos
	}
	r.writer.Reset()
	c.view.Sync(r.world, c.lastCenter, r.world.Params.ViewRadius, r.writer)
	r.send(c, bytes.Clone(r.writer.Bytes()))
}

func (r *Room) applyPending(c *Client) {
	if c.leaving {
		return
	}
	if c.joinPending {
		c.joinPending = false
		if c.player == 0 {
			p := r.world.SpawnPlayer(c.displayName(), c.ID, r.world.RandomPosition())
			c.player = p.ID
			c.lastCenter = p.Pos
			r.numPlayers.Add(1)
			r.sendPlayerID(c)
		}
	}
	if c.killPending {
		c.killPending = false
		r.killPlayer(c)
	}
	if c.player == 0 {
		return
	}
	if _, alive := r.world.Get(c.player); alive {
		if err := r.world.ApplyInput(c.player, c.input); err != nil {
			r.logger.Printf("room %s: client %s: %v", r.Code, c.ID, err)
		}
	}
}

func (r *Room) sendPlayerID(c *Client) {
	if c.player == 0 {
		r.world.Invariant("player id requested for client %s without a player", c.ID)
		return
	}
	r.send(c, protocol.EncodePlayerID(uint32(c.player)))
}

func (r *Room) killPlayer(c *Client) {
	if c.player == 0 {
		r.world.Invariant("kill requested for client %s without a player", c.ID)
		return
	}
	if _, alive := r.world.Get(c.player); !alive {
		return
	}
	if err := r.world.Destroy(c.player); err != nil {
		r.logger.Printf("room %s: kill %s: %v", r.Code, c.ID, err)
	}
}

// send never waits on the connection. A failed send drops the client: the
// update stream is a diff, so a lost frame would leave its view inconsistent.
func (r *Room) send(c *Client, b []byte) {
	if err := c.conn.Send(b); err != nil {
		r.logger.Printf("room %s: send to client %s failed: %v", r.Code, c.ID, err)
		c.leaving = true
	}
}

// reap removes clients marked as leaving, after all walks of the tick.
func (r *Room) reap() {
	if !slices.ContainsFunc(r.order, func(c *Client) bool { return c.leaving }) {
		return
	}
	kept := r.order[:0]
	for _, c := range r.order {
		if !c.leaving {
			kept = append(kept, c)
			continue
		}
		r.removeClient(c)
	}
	clear(r.order[len(kept):])
	r.order = kept
	r.numClients.Store(int32(len(r.clients)))

	if len(r.clients) == 0 && r.OnEmpty != nil && r.Code != "" {
		go r.OnEmpty(r.Code)
	}
}

func (r *Room) removeClient(c *Client) {
	if c.player != 0 {
		if _, alive := r.world.Get(c.player); alive {
			if err := r.world.Destroy(c.player); err != nil {
				r.logger.Printf("room %s: remove player of %s: %v", r.Code, c.ID, err)
			}
		}
		r.numPlayers.Add(-1)
	}
	_ = c.conn.Close()
	delete(r.clients, c.ID)
}

func (r *Room) shutdown() {
	for _, c := range r.order {
		_ = c.conn.Close()
	}
drain:
	for {
		select {
		case cmd := <-r.Inbox:
			if c, ok := cmd.(Connect); ok {
				_ = c.Conn.Close()
			}
		default:
			break drain
		}
	}
	r.order = nil
	clear(r.clients)
	r.numClients.Store(0)
	r.numPlayers.Store(0)
}
