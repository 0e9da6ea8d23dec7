package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"arena/game"
)

// Config is everything the server binary needs at start.
type Config struct {
	Addr         string        `json:"addr" jsonschema:"description=Listen address of the HTTP server"`
	DefaultRoom  string        `json:"defaultRoom" jsonschema:"description=Room joined when /ws has no room query"`
	ReadLimit    int64         `json:"readLimit" jsonschema:"minimum=1,description=Largest accepted client frame in bytes"`
	SendQueue    int           `json:"sendQueue" jsonschema:"minimum=1,description=Outbound frames buffered per connection"`
	PingInterval time.Duration `json:"pingInterval" jsonschema:"description=Websocket keepalive period"`
	World        game.Params   `json:"world"`
}

func Default() Config {
	return Config{
		Addr:         ":8080",
		DefaultRoom:  "LOBBY",
		ReadLimit:    1 << 10,
		SendQueue:    64,
		PingInterval: 25 * time.Second,
		World:        game.DefaultParams(),
	}
}

// Load reads the given .env files (".env" when none are named) into the
// environment and builds a Config from the ARENA_* variables. Missing files
// are skipped; variables already set in the environment win.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
		log.Printf("config: loaded %s", p)
	}

	c := Default()
	w := &c.World
	err := errors.Join(
		str("ARENA_ADDR", &c.Addr),
		str("ARENA_DEFAULT_ROOM", &c.DefaultRoom),
		intVar("ARENA_READ_LIMIT", &c.ReadLimit),
		intVar("ARENA_SEND_QUEUE", &c.SendQueue),
		duration("ARENA_PING_INTERVAL", &c.PingInterval),
		float("ARENA_WORLD_SIZE", &w.WorldSize),
		intVar("ARENA_TICK_HZ", &w.TickHz),
		float("ARENA_VIEW_RADIUS", &w.ViewRadius),
		float("ARENA_CELL_SIZE", &w.CellSize),
		float("ARENA_FRICTION", &w.Friction),
		uintVar("ARENA_GENERATOR_COOLDOWN", &w.GeneratorCooldown),
		intVar("ARENA_GENERATORS", &w.Generators),
		intVar("ARENA_INITIAL_FOOD", &w.InitialFood),
		intVar("ARENA_MAX_FOOD", &w.MaxFood),
		intVar("ARENA_ROPE_SEGMENTS", &w.RopeSegments),
		float("ARENA_ROPE_K", &w.RopeK),
		float("ARENA_ROPE_REST_LENGTH", &w.RopeRestLength),
		boolVar("ARENA_STRICT", &w.Strict),
		intVar("ARENA_SEED", &w.Seed),
	)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: empty listen address")
	case c.World.WorldSize <= 0:
		return fmt.Errorf("config: world size %v must be positive", c.World.WorldSize)
	case c.World.CellSize <= 0:
		return fmt.Errorf("config: cell size %v must be positive", c.World.CellSize)
	case c.World.TickHz <= 0:
		return fmt.Errorf("config: tick rate %d must be positive", c.World.TickHz)
	case c.World.Friction < 0 || c.World.Friction > 1:
		return fmt.Errorf("config: friction %v outside [0,1]", c.World.Friction)
	case c.SendQueue <= 0 || c.ReadLimit <= 0:
		return errors.New("config: websocket limits must be positive")
	}
	return nil
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil
}

func lookup(key string) (string, bool) {
	v, err := GetEnvVariable(key)
	return v, err == nil
}

func str(key string, dst *string) error {
	if v, ok := lookup(key); ok {
		*dst = v
	}
	return nil
}

func intVar[T int | int64](key string, dst *T) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = T(n)
	return nil
}

func uintVar(key string, dst *uint64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func float(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func boolVar(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func duration(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
