package game

const (
	DefaultWorldSize         = 5000.0
	DefaultTickHz            = 40
	DefaultViewRadius        = 700.0
	DefaultCellSize          = 200.0
	DefaultFriction          = 0.9
	DefaultGeneratorCooldown = 10
	DefaultGenerators        = 8
	DefaultInitialFood       = 40
	DefaultMaxFood           = 2000
	DefaultRopeSegments      = 4
	DefaultRopeK             = 0.05
	DefaultRopeRestLength    = 40.0

	PlayerSize       = 30.0
	PlayerKnockback  = 1.0
	PlayerResistance = 0.0
	MoveThreshold    = 80 // input distance below which players coast
	MoveForce        = 1.0
	BoostMult        = 2.5 // applied to MoveForce while the action flag is held

	FlailSize      = 40.0
	FlailKnockback = 0.6
	SegmentSize    = 6.0

	GeneratorSize       = 200.0
	GeneratorKnockback  = 5.0
	GeneratorColor      = 100
	GeneratorPulse      = 10.0
	GeneratorPulseDecay = 0.7

	FoodSizeCommon   = 200.0
	FoodSizeRare     = 1000.0
	FoodCommonChance = 0.9
	FoodLogBase      = 1.2
	FoodSpread       = 0.3 // radians, centred on the collision normal
	FoodMaxLaunch    = 30.0
	FoodResistance   = 0.0

	// CollisionReach pads the broad-phase query beyond the detector's own size.
	CollisionReach = 100.0
)

// Params are the per-world settings supplied at construction.
type Params struct {
	WorldSize         float64 `json:"worldSize" jsonschema:"minimum=0,description=Side of the square arena in world units"`
	TickHz            int     `json:"tickHz" jsonschema:"minimum=1"`
	ViewRadius        float64 `json:"viewRadius" jsonschema:"minimum=0"`
	CellSize          float64 `json:"cellSize" jsonschema:"minimum=0,description=Spatial grid cell edge"`
	Friction          float64 `json:"friction" jsonschema:"minimum=0,maximum=1,description=Per-tick velocity decay factor"`
	GeneratorCooldown uint64  `json:"generatorCooldown" jsonschema:"description=Ticks between food bursts of one generator"`
	Generators        int     `json:"generators" jsonschema:"minimum=0"`
	InitialFood       int     `json:"initialFood" jsonschema:"minimum=0"`
	MaxFood           int     `json:"maxFood" jsonschema:"minimum=0,description=Live food cap; 0 disables the cap"`
	RopeSegments      int     `json:"ropeSegments" jsonschema:"minimum=0"`
	RopeK             float64 `json:"ropeK" jsonschema:"minimum=0"`
	RopeRestLength    float64 `json:"ropeRestLength" jsonschema:"minimum=0"`
	Strict            bool    `json:"strict" jsonschema:"description=Panic on invariant violations instead of logging"`
	Seed              int64   `json:"seed" jsonschema:"description=Random seed; 0 picks one from the clock"`
}

func DefaultParams() Params {
	return Params{
		WorldSize:         DefaultWorldSize,
		TickHz:            DefaultTickHz,
		ViewRadius:        DefaultViewRadius,
		CellSize:          DefaultCellSize,
		Friction:          DefaultFriction,
		GeneratorCooldown: DefaultGeneratorCooldown,
		Generators:        DefaultGenerators,
		InitialFood:       DefaultInitialFood,
		MaxFood:           DefaultMaxFood,
		RopeSegments:      DefaultRopeSegments,
		RopeK:             DefaultRopeK,
		RopeRestLength:    DefaultRopeRestLength,
	}
}
