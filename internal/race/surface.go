package race

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// probeOffset lifts ray origins above the queried point so they always start outside the geometry.
	probeOffset = 50.0
	probeFar    = 100.0

	// placementOffset and placementHeight are used once, when a car is first dropped onto the track.
	placementOffset = 100.0
	placementHeight = 0.5

	// rideHeight is the gap kept between the car origin and the surface while driving.
	rideHeight = 1.0

	rayEpsilon = 1e-9
)

// Intersection is a single ray hit.
type Intersection struct {
	Point    mgl64.Vec3
	Distance float64
}

// Surface answers ray queries against drivable geometry. Intersections are ordered nearest first.
type Surface interface {
	Raycast(origin, direction mgl64.Vec3, far float64) []Intersection
}

type Triangle [3]mgl64.Vec3

// Mesh is an immutable triangle collection.
type Mesh struct {
	triangles []Triangle

	minX, minZ, maxX, maxZ float64
}

func NewMesh(triangles []Triangle) *Mesh {
	m := &Mesh{
		triangles: triangles,
		minX:      math.Inf(1),
		minZ:      math.Inf(1),
		maxX:      math.Inf(-1),
		maxZ:      math.Inf(-1),
	}

	for _, tri := range triangles {
		for _, v := range tri {
			m.minX = math.Min(m.minX, v.X())
			m.minZ = math.Min(m.minZ, v.Z())
			m.maxX = math.Max(m.maxX, v.X())
			m.maxZ = math.Max(m.maxZ, v.Z())
		}
	}

	return m
}

// NewFlatMesh builds a horizontal rectangle at height y from two triangles.
func NewFlatMesh(minX, minZ, maxX, maxZ, y float64) *Mesh {
	a := mgl64.Vec3{minX, y, minZ}
	b := mgl64.Vec3{maxX, y, minZ}
	c := mgl64.Vec3{maxX, y, maxZ}
	d := mgl64.Vec3{minX, y, maxZ}

	return NewMesh([]Triangle{{a, b, c}, {a, c, d}})
}

func (m *Mesh) Len() int {
	if m == nil {
		return 0
	}

	return len(m.triangles)
}

func (m *Mesh) Raycast(origin, direction mgl64.Vec3, far float64) []Intersection {
	if m == nil || len(m.triangles) == 0 {
		return nil
	}

	// vertical rays, which is every query the simulation makes, can reject on the XZ footprint.
	if direction.X() == 0 && direction.Z() == 0 {
		if origin.X() < m.minX || origin.X() > m.maxX || origin.Z() < m.minZ || origin.Z() > m.maxZ {
			return nil
		}
	}

	var hits []Intersection

	for _, tri := range m.triangles {
		if t, ok := intersectTriangle(origin, direction, tri); ok && t <= far {
			hits = append(hits, Intersection{
				Point:    origin.Add(direction.Mul(t)),
				Distance: t,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	return hits
}

// intersectTriangle is the Möller–Trumbore ray/triangle test. Both faces count as hits.
func intersectTriangle(origin, direction mgl64.Vec3, tri Triangle) (float64, bool) {
	edge1 := tri[1].Sub(tri[0])
	edge2 := tri[2].Sub(tri[0])

	p := direction.Cross(edge2)
	det := edge1.Dot(p)

	if math.Abs(det) < rayEpsilon {
		return 0, false
	}

	invDet := 1 / det
	s := origin.Sub(tri[0])

	u := s.Dot(p) * invDet

	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := direction.Dot(q) * invDet

	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge2.Dot(q) * invDet

	if t < 0 {
		return 0, false
	}

	return t, true
}

// Surfaces merges several surfaces into one, e.g. every mesh of a loaded track model.
type Surfaces []Surface

func (s Surfaces) Raycast(origin, direction mgl64.Vec3, far float64) []Intersection {
	var hits []Intersection

	for _, surface := range s {
		if surface == nil {
			continue
		}

		hits = append(hits, surface.Raycast(origin, direction, far)...)
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	return hits
}

type Probe struct {
	Height float64
	Hit    bool
}

// ProbeHeight casts a ray straight down from origin and reports the height of the nearest surface within maxDistance.
func ProbeHeight(surface Surface, origin mgl64.Vec3, maxDistance float64) Probe {
	if surface == nil {
		return Probe{}
	}

	hits := surface.Raycast(origin, down, maxDistance)

	if len(hits) == 0 {
		return Probe{}
	}

	return Probe{Height: hits[0].Point.Y(), Hit: true}
}

// GroundHeight is the height a car at position should ride at. The track is probed first and the terrain acts as a
// fallback, the higher of the two winning when both are present. ok is false when neither is below the car.
func GroundHeight(track, terrain Surface, position mgl64.Vec3) (height float64, ok bool) {
	origin := position.Add(up.Mul(probeOffset))
	height = position.Y()

	if probe := ProbeHeight(track, origin, probeFar); probe.Hit {
		height = probe.Height + rideHeight
		ok = true
	}

	if probe := ProbeHeight(terrain, origin, probeFar); probe.Hit {
		if !ok || probe.Height+rideHeight > height {
			height = probe.Height + rideHeight
		}

		ok = true
	}

	return height, ok
}

// PlaceOnSurface drops position onto the track below it. Positions with no track underneath are returned unchanged.
func PlaceOnSurface(track Surface, position mgl64.Vec3) mgl64.Vec3 {
	probe := ProbeHeight(track, position.Add(up.Mul(placementOffset)), math.Inf(1))

	if !probe.Hit {
		return position
	}

	return mgl64.Vec3{position.X(), probe.Height + placementHeight, position.Z()}
}
