package room

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"arena/game"
	"arena/protocol"
)

// Client is one connection's session inside a room. Its player is assigned
// at most once; afterwards the association is fixed for the session.
type Client struct {
	ID   string
	conn Conn
	seq  int

	input       game.Input
	joinName    string
	joinPending bool
	killPending bool
	leaving     bool

	player     game.ID
	lastCenter game.Vec
	view       *View
}

func newClient(id string, conn Conn, seq int) *Client {
	return &Client{ID: id, conn: conn, seq: seq, view: NewView()}
}

// Player returns the client's player id, or 0 before a join was applied.
func (c *Client) Player() game.ID {
	return c.player
}

func (c *Client) View() *View {
	return c.view
}

// record stores a decoded packet as pending state for the next tick.
func (c *Client) record(packet any) {
	switch p := packet.(type) {
	case protocol.Input:
		c.input = game.Input{
			Angle:    p.Angle,
			Distance: float64(p.Distance),
			Pressed:  p.Pressed,
		}
	case protocol.Join:
		if c.player != 0 || c.joinPending {
			return
		}
		c.joinPending = true
		c.joinName = p.Name
	}
}

func (c *Client) displayName() string {
	name := strings.TrimSpace(strings.ToValidUTF8(c.joinName, ""))
	if len(name) > protocol.MaxNameLength {
		name = name[:protocol.MaxNameLength]
		for !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
	}
	if name == "" {
		name = fmt.Sprintf("Player %d", c.seq)
	}
	return name
}
