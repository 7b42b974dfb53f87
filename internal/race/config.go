package race

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type Spawn struct {
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Z       float64 `json:"z" yaml:"z"`
	Heading float64 `json:"heading" yaml:"heading"`
}

func (s Spawn) State() CarState {
	return CarState{
		Position: mgl64.Vec3{s.X, s.Y, s.Z},
		Heading:  s.Heading,
	}
}

type RaceConfig struct {
	Physics         Physics         `json:"physics" yaml:"physics"`
	EdgeContainment EdgeContainment `json:"edge_containment" yaml:"edge_containment"`
	Collision       CarCollision    `json:"collision" yaml:"collision"`
	PlayerCollision CollisionRole   `json:"player_collision" yaml:"player_collision"`
	GhostCollision  CollisionRole   `json:"ghost_collision" yaml:"ghost_collision"`
	FinishLine      FinishLine      `json:"finish_line" yaml:"finish_line"`
	Camera          Camera          `json:"camera" yaml:"camera"`

	PlayerSpawn Spawn `json:"player_spawn" yaml:"player_spawn"`
	GhostSpawn  Spawn `json:"ghost_spawn" yaml:"ghost_spawn"`

	// HeightProbeInterval is how many ticks a ground height probe is reused for.
	HeightProbeInterval int     `json:"height_probe_interval" yaml:"height_probe_interval"`
	HeightSmoothing     float64 `json:"height_smoothing" yaml:"height_smoothing"`

	CountdownFrom int           `json:"countdown_from" yaml:"countdown_from"`
	CountdownStep time.Duration `json:"countdown_step" yaml:"countdown_step"`
}

func DefaultRaceConfig() RaceConfig {
	return RaceConfig{
		Physics:         DefaultPhysics(),
		EdgeContainment: DefaultEdgeContainment(),
		Collision:       DefaultCarCollision(),
		PlayerCollision: PlayerCollisionRole,
		GhostCollision:  GhostCollisionRole,
		FinishLine:      DefaultFinishLine(),
		Camera:          DefaultCamera(),
		PlayerSpawn:     Spawn{X: -50, Y: 20, Z: -140, Heading: math.Pi},
		GhostSpawn:      Spawn{X: -47, Y: 10, Z: -120, Heading: math.Pi},

		HeightProbeInterval: 2,
		HeightSmoothing:     0.3,

		CountdownFrom: 3,
		CountdownStep: time.Second,
	}
}

func (c RaceConfig) Validate() error {
	if c.Physics.MaxSpeed <= 0 {
		return fmt.Errorf("race: physics max_speed must be positive, got %f", c.Physics.MaxSpeed)
	}

	if c.Physics.Acceleration < 0 || c.Physics.Deceleration < 0 {
		return fmt.Errorf("race: physics acceleration and deceleration must not be negative")
	}

	if c.Collision.Radius <= 0 {
		return fmt.Errorf("race: collision radius must be positive, got %f", c.Collision.Radius)
	}

	if c.FinishLine.Tolerance >= c.FinishLine.DepartureThreshold {
		return fmt.Errorf("race: finish tolerance (%f) must be inside the departure threshold (%f)", c.FinishLine.Tolerance, c.FinishLine.DepartureThreshold)
	}

	if c.HeightProbeInterval < 1 {
		return fmt.Errorf("race: height_probe_interval must be at least 1")
	}

	return nil
}
