package race

import "github.com/go-gl/mathgl/mgl64"

// Camera is a chase rig that sits behind and above the player.
type Camera struct {
	Offset    mgl64.Vec3 `json:"offset" yaml:"offset"`
	Smoothing float64    `json:"smoothing" yaml:"smoothing"`
	LookAbove float64    `json:"look_above" yaml:"look_above"`

	Position mgl64.Vec3 `json:"-" yaml:"-"`
	LookAt   mgl64.Vec3 `json:"-" yaml:"-"`

	initialised bool
}

func DefaultCamera() Camera {
	return Camera{
		Offset:    mgl64.Vec3{0, 8, -15},
		Smoothing: 0.1,
		LookAbove: 3,
	}
}

// Follow moves the camera towards its spot behind target. The first call snaps straight there.
func (c *Camera) Follow(target CarState) {
	desired := target.Position.Add(rotateY(c.Offset, target.Heading))

	if !c.initialised {
		c.Position = desired
		c.initialised = true
	} else {
		c.Position = c.Position.Add(desired.Sub(c.Position).Mul(c.Smoothing))
	}

	c.LookAt = target.Position.Add(up.Mul(c.LookAbove))
}

func (c *Camera) reset() {
	c.initialised = false
}
