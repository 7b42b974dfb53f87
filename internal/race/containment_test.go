package race

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEdgeContainmentResolve(t *testing.T) {
	containment := DefaultEdgeContainment()
	track := NewFlatMesh(-10, -10, 10, 10, 0)

	for _, test := range []struct {
		name       string
		surface    Surface
		position   mgl64.Vec3
		heading    float64
		correction mgl64.Vec3
	}{
		{name: "fully on the track", surface: track, position: mgl64.Vec3{3, 0, -4}, heading: 0.3},
		{name: "no track loaded", surface: nil, position: mgl64.Vec3{9, 0, 0}},
		{name: "right side off the edge", surface: track, position: mgl64.Vec3{9, 0, 0}, correction: mgl64.Vec3{-1.5, 0, 0}},
		{name: "front off the edge", surface: track, position: mgl64.Vec3{0, 0, 9}, correction: mgl64.Vec3{0, 0, -2}},
		{
			name:       "three corners off the edge",
			surface:    track,
			position:   mgl64.Vec3{9, 0, 9},
			correction: mgl64.Vec3{-0.75, 0, -1},
		},
		{
			name:       "nowhere near the track",
			surface:    track,
			position:   mgl64.Vec3{50, 0, 50},
			correction: mgl64.Vec3{0, 0, 0},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			correction := containment.Resolve(test.position, test.heading, test.surface)

			if !correction.ApproxEqualThreshold(test.correction, 1e-9) {
				t.Errorf("expected correction %v, got %v", test.correction, correction)
			}

			if correction.Y() != 0 {
				t.Errorf("correction should be horizontal, got %v", correction)
			}
		})
	}
}

func TestEdgeContainmentFlatTrackNeverNudges(t *testing.T) {
	containment := DefaultEdgeContainment()
	track := NewFlatMesh(-100, -100, 100, 100, 0)

	for heading := 0.0; heading < 2*math.Pi; heading += 0.1 {
		position := mgl64.Vec3{math.Cos(heading) * 40, 1, math.Sin(heading) * 40}

		if correction := containment.Resolve(position, heading, track); correction.Len() != 0 {
			t.Errorf("heading %f: expected no correction, got %v", heading, correction)
		}
	}
}
