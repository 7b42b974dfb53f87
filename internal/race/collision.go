package race

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionRole holds the per-side tuning of a car-car contact. The player and ghost each have their own.
type CollisionRole struct {
	PushFactor      float64 `json:"push_factor" yaml:"push_factor"`
	SpeedMultiplier float64 `json:"speed_multiplier" yaml:"speed_multiplier"`
}

var (
	// PlayerCollisionRole is used when the player runs into the ghost: a strong shove and half speed.
	PlayerCollisionRole = CollisionRole{PushFactor: 2.0, SpeedMultiplier: 0.5}

	// GhostCollisionRole only moves the ghost visually. Its speed comes from the recording, so it is left alone.
	GhostCollisionRole = CollisionRole{PushFactor: 1.5, SpeedMultiplier: 1.0}
)

// CarCollision tests the circular footprints of two cars in the horizontal plane.
type CarCollision struct {
	Radius     float64 `json:"radius" yaml:"radius"`
	BroadPhase float64 `json:"broad_phase" yaml:"broad_phase"`
}

func DefaultCarCollision() CarCollision {
	return CarCollision{
		Radius:     7,
		BroadPhase: 20,
	}
}

type CollisionResult struct {
	Collided        bool
	Distance        float64
	Correction      mgl64.Vec3
	SnapHeight      float64
	SpeedMultiplier float64
}

// Resolve works out how self reacts to overlapping other. Only self is ever corrected; callers resolve each side
// with its own role.
func (c CarCollision) Resolve(self, other CarState, role CollisionRole) CollisionResult {
	result := CollisionResult{SpeedMultiplier: 1}

	dx := self.Position.X() - other.Position.X()
	dz := self.Position.Z() - other.Position.Z()

	if math.Abs(dx) >= c.BroadPhase || math.Abs(dz) >= c.BroadPhase {
		return result
	}

	distance := math.Hypot(dx, dz)
	result.Distance = distance

	if distance >= c.Radius {
		return result
	}

	var direction mgl64.Vec3

	if distance > 0 {
		direction = mgl64.Vec3{dx / distance, 0, dz / distance}
	} else {
		// centres coincide, back self out the way it came.
		direction = forward(self.Heading).Mul(-1)
	}

	result.Collided = true
	result.Correction = direction.Mul((c.Radius - distance) * role.PushFactor)
	result.SnapHeight = other.Position.Y()
	result.SpeedMultiplier = role.SpeedMultiplier

	return result
}

// Apply pushes state out of the contact, levels it with the other car so neither can tunnel underneath, and applies
// the speed penalty.
func (r CollisionResult) Apply(state CarState) CarState {
	if !r.Collided {
		return state
	}

	position := state.Position.Add(r.Correction)
	state.Position = mgl64.Vec3{position.X(), r.SnapHeight, position.Z()}
	state.Speed *= r.SpeedMultiplier

	return state
}
