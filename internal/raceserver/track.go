package raceserver

import (
	"github.com/go-gl/mathgl/mgl64"

	"justapengu.in/ghostrace/internal/race"
)

// RectConfig is a flat, axis aligned piece of surface.
type RectConfig struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinZ float64 `json:"min_z" yaml:"min_z"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxZ float64 `json:"max_z" yaml:"max_z"`
	Y    float64 `json:"y" yaml:"y"`
}

// TrackConfig describes the drivable geometry. Rects and triangles are merged into one track surface.
type TrackConfig struct {
	Track     []RectConfig    `json:"track" yaml:"track"`
	Triangles [][3]mgl64.Vec3 `json:"triangles" yaml:"triangles"`
	Terrain   []RectConfig    `json:"terrain" yaml:"terrain"`
}

// DefaultTrackConfig is a rectangular loop that starts and finishes on its west straight, surrounded by terrain
// a little below the racing surface.
func DefaultTrackConfig() TrackConfig {
	return TrackConfig{
		Track: []RectConfig{
			{MinX: -70, MinZ: -300, MaxX: -30, MaxZ: -100}, // west straight
			{MinX: -70, MinZ: -300, MaxX: 50, MaxZ: -260},  // south
			{MinX: 10, MinZ: -300, MaxX: 50, MaxZ: -100},   // east
			{MinX: -70, MinZ: -140, MaxX: 50, MaxZ: -100},  // north
		},
		Terrain: []RectConfig{
			{MinX: -500, MinZ: -600, MaxX: 500, MaxZ: 300, Y: -2},
		},
	}
}

func meshes(rects []RectConfig) race.Surfaces {
	var surfaces race.Surfaces

	for _, rect := range rects {
		surfaces = append(surfaces, race.NewFlatMesh(rect.MinX, rect.MinZ, rect.MaxX, rect.MaxZ, rect.Y))
	}

	return surfaces
}

// Surfaces builds the track and terrain surfaces. terrain is nil when none is configured.
func (t TrackConfig) Surfaces() (track, terrain race.Surface) {
	trackSurfaces := meshes(t.Track)

	if len(t.Triangles) > 0 {
		triangles := make([]race.Triangle, len(t.Triangles))

		for i, tri := range t.Triangles {
			triangles[i] = race.Triangle(tri)
		}

		trackSurfaces = append(trackSurfaces, race.NewMesh(triangles))
	}

	if len(trackSurfaces) > 0 {
		track = trackSurfaces
	}

	if len(t.Terrain) > 0 {
		terrain = meshes(t.Terrain)
	}

	return track, terrain
}
