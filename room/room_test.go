package room

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"arena/game"
	"arena/protocol"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (f *fakeConn) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("fake: send failed")
	}
	f.frames = append(f.frames, append([]byte(nil), b...))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.frames...)
}

func (f *fakeConn) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func testParams() game.Params {
	p := game.DefaultParams()
	p.WorldSize = 1000
	p.CellSize = 50
	p.ViewRadius = 200
	p.Generators = 0
	p.InitialFood = 0
	p.MaxFood = 0
	p.Strict = true
	p.Seed = 7
	return p
}

// joinClient connects a client, joins it and runs the tick that spawns its player.
func joinClient(t *testing.T, r *Room, id, name string) (*fakeConn, *Client) {
	t.Helper()
	fc := &fakeConn{}
	r.handleCommand(Connect{ClientID: id, Conn: fc})
	r.handleCommand(Packet{ClientID: id, Packet: protocol.Join{Name: name}})
	r.tick()
	c := r.clients[id]
	if c == nil || c.Player() == 0 {
		t.Fatalf("client %s has no player after join tick", id)
	}
	return fc, c
}

// moveTo relocates an entity and keeps the grid in step.
func moveTo(t *testing.T, w *game.World, id game.ID, pos game.Vec) {
	t.Helper()
	e, ok := w.Get(id)
	if !ok {
		t.Fatalf("entity %d not found", id)
	}
	e.Pos = pos
	e.Vel = game.Vec{}
	if err := w.Grid.Update(e); err != nil {
		t.Fatalf("grid update %d: %v", id, err)
	}
}

func updatesOnly(t *testing.T, frames [][]byte) [][]byte {
	t.Helper()
	var out [][]byte
	for _, b := range frames {
		pt, err := protocol.PacketType(b)
		if err != nil {
			t.Fatalf("packet type: %v", err)
		}
		if pt == protocol.PacketUpdate {
			out = append(out, b)
		}
	}
	return out
}

func TestConnectSendsInit(t *testing.T) {
	r := New(testParams(), nil)
	fc := &fakeConn{}
	r.handleCommand(Connect{ClientID: "a", Conn: fc})

	frames := fc.Frames()
	if len(frames) != 1 {
		t.Fatalf("frames after connect = %d, want 1", len(frames))
	}
	size, err := protocol.DecodeInit(frames[0])
	if err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if size != 1000 {
		t.Fatalf("world size = %d, want 1000", size)
	}
	if r.NumClients() != 1 {
		t.Fatalf("NumClients = %d, want 1", r.NumClients())
	}
}

func TestJoinSendsPlayerIDAfterTick(t *testing.T) {
	r := New(testParams(), nil)
	fc := &fakeConn{}
	r.handleCommand(Connect{ClientID: "a", Conn: fc})
	r.handleCommand(Packet{ClientID: "a", Packet: protocol.Join{Name: "alice"}})
	if got := r.clients["a"].Player(); got != 0 {
		t.Fatalf("player assigned before tick: %d", got)
	}

	r.tick()
	frames := fc.Frames()
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want init and player id", len(frames))
	}
	id, err := protocol.DecodePlayerID(frames[1])
	if err != nil {
		t.Fatalf("decode player id: %v", err)
	}
	if id != 1 {
		t.Fatalf("player id = %d, want 1", id)
	}
	p, ok := r.World().Get(game.ID(id))
	if !ok || p.Kind != game.KindPlayer || p.Name != "alice" {
		t.Fatalf("player entity = %+v, ok=%v", p, ok)
	}
	if r.NumPlayers() != 1 {
		t.Fatalf("NumPlayers = %d, want 1", r.NumPlayers())
	}
}

func TestNoUpdatesBeforeJoin(t *testing.T) {
	r := New(testParams(), nil)
	fc := &fakeConn{}
	r.handleCommand(Connect{ClientID: "a", Conn: fc})
	for i := 0; i < 3; i++ {
		r.tick()
	}
	if n := len(fc.Frames()); n != 1 {
		t.Fatalf("frames = %d, want only init", n)
	}
	if r.World().Tick != 3 {
		t.Fatalf("tick = %d, want 3", r.World().Tick)
	}
}

func TestDuplicateJoinIgnored(t *testing.T) {
	r := New(testParams(), nil)
	fc := &fakeConn{}
	r.handleCommand(Connect{ClientID: "a", Conn: fc})
	r.handleCommand(Packet{ClientID: "a", Packet: protocol.Join{Name: "one"}})
	r.handleCommand(Packet{ClientID: "a", Packet: protocol.Join{Name: "two"}})
	r.tick()
	r.handleCommand(Packet{ClientID: "a", Packet: protocol.Join{Name: "three"}})
	r.tick()

	ids := 0
	for _, b := range fc.Frames() {
		if pt, _ := protocol.PacketType(b); pt == protocol.PacketPlayerID {
			ids++
		}
	}
	if ids != 1 {
		t.Fatalf("player id packets = %d, want 1", ids)
	}
	if r.NumPlayers() != 1 {
		t.Fatalf("NumPlayers = %d, want 1", r.NumPlayers())
	}
	p, _ := r.World().Get(r.clients["a"].Player())
	if p.Name != "one" {
		t.Fatalf("player name = %q, want first join name", p.Name)
	}
}

func TestDisplayNameDefaultsAndTruncates(t *testing.T) {
	c := newClient("x", &fakeConn{}, 4)
	c.joinName = "   "
	if got := c.displayName(); got != "Player 4" {
		t.Fatalf("blank name = %q, want Player 4", got)
	}
	c.joinName = "abcdefghijklmnopqrstuvwxyz0123456789"
	if got := c.displayName(); len(got) != protocol.MaxNameLength {
		t.Fatalf("long name kept %d bytes, want %d", len(got), protocol.MaxNameLength)
	}
	c.joinName = "ok\xffname"
	if got := c.displayName(); got != "okname" {
		t.Fatalf("invalid utf8 name = %q, want okname", got)
	}
}

func TestViewCreatesAndDeletesEntities(t *testing.T) {
	r := New(testParams(), nil)
	w := r.World()
	fc, c := joinClient(t, r, "a", "alice")
	moveTo(t, w, c.Player(), game.Vec{X: 100, Y: 100})
	food := w.Spawn(game.NewFood(game.FoodCommon, game.Vec{X: 150, Y: 100}, 5))

	dec := protocol.NewViewDecoder()
	r.tick()
	ups := updatesOnly(t, fc.Frames())
	if len(ups) != 1 {
		t.Fatalf("updates = %d, want 1", len(ups))
	}
	u, err := dec.Decode(ups[0])
	if err != nil {
		t.Fatalf("decode first update: %v", err)
	}
	var created bool
	for _, rec := range u.Records {
		if rec.ID == uint32(food.ID) {
			created = rec.Created
		}
	}
	if !created {
		t.Fatalf("food %d not created in first update: %+v", food.ID, u)
	}
	s, ok := dec.Get(uint32(food.ID))
	if !ok || s.Type != protocol.TypeFood || s.Points[0] != (protocol.Point{X: 150, Y: 100}) {
		t.Fatalf("food state = %+v, ok=%v", s, ok)
	}

	r.tick()
	u, err = dec.Decode(updatesOnly(t, fc.Frames())[1])
	if err != nil {
		t.Fatalf("decode second update: %v", err)
	}
	for _, rec := range u.Records {
		if rec.ID == uint32(food.ID) && rec.Created {
			t.Fatalf("food created twice")
		}
	}

	moveTo(t, w, food.ID, game.Vec{X: 950, Y: 950})
	r.tick()
	u, err = dec.Decode(updatesOnly(t, fc.Frames())[2])
	if err != nil {
		t.Fatalf("decode third update: %v", err)
	}
	if !slices.Contains(u.Deleted, uint32(food.ID)) {
		t.Fatalf("deleted = %v, want it to contain %d", u.Deleted, food.ID)
	}
	if c.View().Has(food.ID) {
		t.Fatalf("view still holds food after deletion")
	}
}

func TestViewMatchesDecoderOverTicks(t *testing.T) {
	p := testParams()
	p.InitialFood = 60
	p.Generators = 3
	p.MaxFood = 200
	r := New(p, nil)
	fc, c := joinClient(t, r, "a", "alice")
	dec := protocol.NewViewDecoder()

	for i := 0; i < 200; i++ {
		angle := float64(i%16) * 0.4
		r.handleCommand(Packet{ClientID: "a", Packet: protocol.Input{Angle: angle, Distance: 300, Pressed: i%3 == 0}})
		r.tick()
	}
	for i, b := range updatesOnly(t, fc.Frames()) {
		if _, err := dec.Decode(b); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if dec.Len() != c.View().Len() {
		t.Fatalf("decoder holds %d entities, view holds %d", dec.Len(), c.View().Len())
	}
	r.World().Entities.Each(func(e *game.Entity) {
		if e.Kind == game.KindRopeSegment {
			if _, ok := dec.Get(uint32(e.ID)); ok {
				t.Fatalf("segment %d sent to client", e.ID)
			}
		}
	})
}

func TestInputMovesPlayer(t *testing.T) {
	r := New(testParams(), nil)
	_, c := joinClient(t, r, "a", "alice")
	moveTo(t, r.World(), c.Player(), game.Vec{X: 300, Y: 500})

	r.handleCommand(Packet{ClientID: "a", Packet: protocol.Input{Angle: 0, Distance: 200}})
	for i := 0; i < 5; i++ {
		r.tick()
	}
	p, _ := r.World().Get(c.Player())
	if p.Pos.X <= 300 {
		t.Fatalf("player x = %f, want > 300", p.Pos.X)
	}
}

func TestDisconnectRemovesClientAndPlayer(t *testing.T) {
	r := New(testParams(), nil)
	r.Code = "ROOM01"
	emptied := make(chan string, 1)
	r.OnEmpty = func(code string) { emptied <- code }

	fc, c := joinClient(t, r, "a", "alice")
	player := c.Player()
	p, _ := r.World().Get(player)
	flail, rope := p.Player.Flail, p.Player.Rope

	r.handleCommand(Disconnect{ClientID: "a"})
	r.tick()

	if r.NumClients() != 0 || r.NumPlayers() != 0 {
		t.Fatalf("counts after disconnect: clients=%d players=%d", r.NumClients(), r.NumPlayers())
	}
	for _, id := range []game.ID{player, flail, rope} {
		if _, ok := r.World().Get(id); ok {
			t.Fatalf("entity %d survived disconnect", id)
		}
	}
	if !fc.Closed() {
		t.Fatalf("connection not closed")
	}
	select {
	case code := <-emptied:
		if code != "ROOM01" {
			t.Fatalf("OnEmpty code = %q", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("OnEmpty not called")
	}
}

func TestSendFailureDropsOnlyThatClient(t *testing.T) {
	r := New(testParams(), nil)
	good, _ := joinClient(t, r, "a", "alice")
	bad, _ := joinClient(t, r, "b", "bob")
	before := len(updatesOnly(t, good.Frames()))

	bad.setFail(true)
	r.tick()

	if _, ok := r.clients["b"]; ok {
		t.Fatalf("failing client still present")
	}
	if !bad.Closed() {
		t.Fatalf("failing client not closed")
	}
	if after := len(updatesOnly(t, good.Frames())); after != before+1 {
		t.Fatalf("healthy client updates = %d, want %d", after, before+1)
	}
	if r.NumPlayers() != 1 {
		t.Fatalf("NumPlayers = %d, want 1", r.NumPlayers())
	}
}

func TestKillDestroysPlayerAndKeepsSession(t *testing.T) {
	r := New(testParams(), nil)
	fc, c := joinClient(t, r, "a", "alice")
	player := c.Player()

	r.handleCommand(Kill{ClientID: "a"})
	r.tick()
	if _, ok := r.World().Get(player); ok {
		t.Fatalf("player survived kill")
	}
	if _, ok := r.clients["a"]; !ok {
		t.Fatalf("client removed by kill")
	}

	n := len(updatesOnly(t, fc.Frames()))
	r.tick()
	if got := len(updatesOnly(t, fc.Frames())); got != n+1 {
		t.Fatalf("updates after kill = %d, want %d", got, n+1)
	}
}

func TestKillWithoutPlayerIsLenient(t *testing.T) {
	p := testParams()
	p.Strict = false
	r := New(p, nil)
	r.handleCommand(Connect{ClientID: "a", Conn: &fakeConn{}})
	r.handleCommand(Kill{ClientID: "a"})
	r.tick()
	if r.NumClients() != 1 {
		t.Fatalf("NumClients = %d, want 1", r.NumClients())
	}
}

func TestKillWithoutPlayerPanicsWhenStrict(t *testing.T) {
	r := New(testParams(), nil)
	r.handleCommand(Connect{ClientID: "a", Conn: &fakeConn{}})
	r.handleCommand(Kill{ClientID: "a"})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for kill without player")
		}
	}()
	r.tick()
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := New(testParams(), nil)
	r.Code = "SNAP01"
	_, c := joinClient(t, r, "a", "alice")
	r.World().Spawn(game.NewFood(game.FoodRare, game.Vec{X: 10, Y: 10}, 1))

	b, err := r.snapshot().Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s, err := UnmarshalSnapshot(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Code != "SNAP01" || s.Tick != 1 || s.Clients != 1 || s.Players != 1 || s.Food != 1 {
		t.Fatalf("snapshot header = %+v", s)
	}
	var found bool
	for _, e := range s.Entities {
		if e.Kind == "segment" {
			t.Fatalf("segment in snapshot")
		}
		if e.ID == uint32(c.Player()) && e.Name == "alice" && e.Kind == "player" {
			found = true
		}
	}
	if !found {
		t.Fatalf("player missing from snapshot: %+v", s.Entities)
	}
}

func TestRunServesSnapshotAndShutsDown(t *testing.T) {
	r := New(testParams(), nil)
	go r.Run()

	fc := &fakeConn{}
	if !r.Post(Connect{ClientID: "a", Conn: fc}) {
		t.Fatalf("post to running room failed")
	}
	s, err := r.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Clients != 1 {
		t.Fatalf("snapshot clients = %d, want 1", s.Clients)
	}

	r.Stop()
	deadline := time.After(time.Second)
	for !fc.Closed() {
		select {
		case <-deadline:
			t.Fatalf("connection not closed on shutdown")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
