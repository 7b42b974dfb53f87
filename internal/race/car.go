package race

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type CarRole string

const (
	RolePlayer CarRole = "player"
	RoleGhost  CarRole = "ghost"
)

// ControlIntent is what the driver wants this tick. It is polled, never awaited.
type ControlIntent struct {
	Forward     bool `json:"forward"`
	RotateLeft  bool `json:"rotate_left"`
	RotateRight bool `json:"rotate_right"`
}

type CarState struct {
	Position mgl64.Vec3 `json:"position"`
	Heading  float64    `json:"heading"`
	Speed    float64    `json:"speed"`
}

func (s CarState) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f) heading: %.3f speed: %.2f", s.Position.X(), s.Position.Y(), s.Position.Z(), s.Heading, s.Speed)
}

// Frame converts the state into the format used by ghost paths.
func (s CarState) Frame() RecordedFrame {
	return RecordedFrame{
		X:        s.Position.X(),
		Y:        s.Position.Y(),
		Z:        s.Position.Z(),
		Rotation: s.Heading,
	}
}

type Physics struct {
	MaxSpeed        float64 `json:"max_speed" yaml:"max_speed"`
	Acceleration    float64 `json:"acceleration" yaml:"acceleration"`
	Deceleration    float64 `json:"deceleration" yaml:"deceleration"`
	RotateSpeed     float64 `json:"rotate_speed" yaml:"rotate_speed"`
	TiltRotateSpeed float64 `json:"tilt_rotate_speed" yaml:"tilt_rotate_speed"`
}

// DefaultPhysics throttles up faster than the car coasts down, but neither is instant.
func DefaultPhysics() Physics {
	return Physics{
		MaxSpeed:        1.0,
		Acceleration:    0.05,
		Deceleration:    0.02,
		RotateSpeed:     0.02,
		TiltRotateSpeed: 0.02,
	}
}

// Advance moves state forward one fixed tick.
func (p Physics) Advance(state CarState, intent ControlIntent, rotateSpeed float64) CarState {
	if intent.RotateLeft {
		state.Heading += rotateSpeed
	}

	if intent.RotateRight {
		state.Heading -= rotateSpeed
	}

	if intent.Forward {
		state.Speed = clamp(state.Speed+p.Acceleration, 0, p.MaxSpeed)
	} else {
		state.Speed = clamp(state.Speed-p.Deceleration, 0, p.MaxSpeed)
	}

	state.Position = state.Position.Add(forward(state.Heading).Mul(state.Speed))

	return state
}

// Car is one of the two race participants. Loaded is false until its model has been delivered, and every per-tick
// operation on an unloaded car is skipped.
type Car struct {
	Role   CarRole  `json:"role"`
	Loaded bool     `json:"loaded"`
	State  CarState `json:"state"`
	Spawn  CarState `json:"-"`
}

func (c *Car) respawn() {
	c.State = c.Spawn
}
