package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arena/protocol"
)

// botClient plays one player: it mirrors its view and steers at the
// nearest food it can see.
type botClient struct {
	name   string
	conn   *websocket.Conn
	view   *protocol.ViewDecoder
	player uint32
	world  uint32

	updates int
	gone    int
}

func main() {
	wsURL := flag.String("ws", "ws://localhost:8080/ws?room=LOBBY", "arena websocket url")
	clientCount := flag.Int("clients", 2, "number of bot clients")
	duration := flag.Duration("duration", 10*time.Second, "how long the bots play")
	flag.Parse()

	if *clientCount < 1 {
		fmt.Println("clients must be >= 1")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	bots := make([]*botClient, 0, *clientCount)
	for index := 0; index < *clientCount; index++ {
		client, err := newBotClient(ctx, *wsURL, fmt.Sprintf("bot-%d", index+1))
		if err != nil {
			fail(err)
		}
		bots = append(bots, client)
	}
	defer func() {
		for _, client := range bots {
			client.close()
		}
	}()

	var wg sync.WaitGroup
	errs := make(chan error, len(bots))
	for _, client := range bots {
		wg.Add(1)
		go func(c *botClient) {
			defer wg.Done()
			if err := c.play(ctx); err != nil {
				errs <- fmt.Errorf("%s: %w", c.name, err)
			}
		}(client)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		fail(err)
	}

	for _, client := range bots {
		fmt.Printf("%s: player %d, %d updates, %d entities in view, %d entities left view\n",
			client.name, client.player, client.updates, client.view.Len(), client.gone)
	}
	fmt.Println("arena-bot: ok")
}

func newBotClient(ctx context.Context, url, name string) (*botClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &botClient{name: name, conn: conn, view: protocol.NewViewDecoder()}

	_, b, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read init: %w", err)
	}
	if c.world, err = protocol.DecodeInit(b); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode init: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeJoin(name)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}
	return c, nil
}

func (c *botClient) play(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = c.conn.SetReadDeadline(deadline)
		}
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		kind, err := protocol.PacketType(b)
		if err != nil {
			return err
		}
		switch kind {
		case protocol.PacketPlayerID:
			if c.player, err = protocol.DecodePlayerID(b); err != nil {
				return err
			}
		case protocol.PacketUpdate:
			u, err := c.view.Decode(b)
			if err != nil {
				return fmt.Errorf("update %d: %w", c.updates, err)
			}
			c.updates++
			for _, id := range u.Deleted {
				if id != c.player {
					c.gone++
				}
			}
			if err := c.steer(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected packet type %d", kind)
		}
	}
}

// steer points the input at the closest visible food, boosting when far.
func (c *botClient) steer() error {
	self, ok := c.view.Get(c.player)
	if !ok || len(self.Points) == 0 {
		return nil
	}
	origin := self.Points[0]
	best := math.Inf(1)
	var target protocol.Point
	c.view.Each(func(id uint32, s protocol.EntityState) {
		if s.Type != protocol.TypeFood || len(s.Points) == 0 {
			return
		}
		p := s.Points[0]
		d := math.Hypot(float64(p.X-origin.X), float64(p.Y-origin.Y))
		if d < best {
			best, target = d, p
		}
	})
	var in protocol.Input
	if !math.IsInf(best, 1) {
		in.Angle = math.Atan2(float64(target.Y-origin.Y), float64(target.X-origin.X))
		in.Distance = uint32(math.Min(best, math.MaxUint16))
		in.Pressed = best > 400
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeInput(in))
}

func (c *botClient) close() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.conn.Close()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "arena-bot: %v\n", err)
	os.Exit(1)
}
