package race

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func ramp() *Mesh {
	a := mgl64.Vec3{0, 0, 0}
	b := mgl64.Vec3{10, 10, 0}
	c := mgl64.Vec3{10, 10, 10}
	d := mgl64.Vec3{0, 0, 10}

	return NewMesh([]Triangle{{a, b, c}, {a, c, d}})
}

func TestProbeHeight(t *testing.T) {
	flat := NewFlatMesh(-10, -10, 10, 10, 3)

	for _, test := range []struct {
		name        string
		surface     Surface
		origin      mgl64.Vec3
		maxDistance float64
		hit         bool
		height      float64
	}{
		{name: "flat hit", surface: flat, origin: mgl64.Vec3{1, 50, 2}, maxDistance: 100, hit: true, height: 3},
		{name: "outside footprint", surface: flat, origin: mgl64.Vec3{20, 50, 2}, maxDistance: 100},
		{name: "out of reach", surface: flat, origin: mgl64.Vec3{1, 50, 2}, maxDistance: 10},
		{name: "origin below surface", surface: flat, origin: mgl64.Vec3{1, 0, 2}, maxDistance: 100},
		{name: "nil surface", surface: nil, origin: mgl64.Vec3{1, 50, 2}, maxDistance: 100},
		{name: "ramp", surface: ramp(), origin: mgl64.Vec3{6, 50, 3}, maxDistance: 100, hit: true, height: 6},
		{
			name:        "stacked surfaces return the top one",
			surface:     Surfaces{flat, NewFlatMesh(-10, -10, 10, 10, 8)},
			origin:      mgl64.Vec3{1, 50, 2},
			maxDistance: 100,
			hit:         true,
			height:      8,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			probe := ProbeHeight(test.surface, test.origin, test.maxDistance)

			if probe.Hit != test.hit {
				t.Fatalf("expected hit=%t, got %t", test.hit, probe.Hit)
			}

			if test.hit && math.Abs(probe.Height-test.height) > 1e-6 {
				t.Errorf("expected height %f, got %f", test.height, probe.Height)
			}
		})
	}
}

func TestGroundHeight(t *testing.T) {
	track := NewFlatMesh(-10, -10, 10, 10, 0)
	terrain := NewFlatMesh(-100, -100, 100, 100, 2)
	position := mgl64.Vec3{1, 7, 1}

	for _, test := range []struct {
		name           string
		track, terrain Surface
		ok             bool
		height         float64
	}{
		{name: "track only", track: track, ok: true, height: 1},
		{name: "terrain only", terrain: terrain, ok: true, height: 3},
		{name: "higher of the two wins", track: track, terrain: terrain, ok: true, height: 3},
		{name: "nothing below keeps current height", ok: false, height: 7},
	} {
		t.Run(test.name, func(t *testing.T) {
			height, ok := GroundHeight(test.track, test.terrain, position)

			if ok != test.ok {
				t.Errorf("expected ok=%t, got %t", test.ok, ok)
			}

			if height != test.height {
				t.Errorf("expected height %f, got %f", test.height, height)
			}
		})
	}
}

func TestPlaceOnSurface(t *testing.T) {
	track := NewFlatMesh(-10, -10, 10, 10, 2)

	placed := PlaceOnSurface(track, mgl64.Vec3{1, 40, 1})

	if placed != (mgl64.Vec3{1, 2.5, 1}) {
		t.Errorf("expected car 0.5 above the track, got %v", placed)
	}

	offTrack := mgl64.Vec3{50, 40, 1}

	if placed := PlaceOnSurface(track, offTrack); placed != offTrack {
		t.Errorf("expected position off the track to be unchanged, got %v", placed)
	}
}
