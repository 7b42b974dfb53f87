package race

import "github.com/go-gl/mathgl/mgl64"

// EdgeContainment keeps a car on the track by probing points around its footprint. Any point found off the track
// pulls the car back towards its centre, so cars slide along the edge instead of stopping dead.
type EdgeContainment struct {
	Sensors       []mgl64.Vec3 `json:"sensors" yaml:"sensors"`
	ProbeOffset   float64      `json:"probe_offset" yaml:"probe_offset"`
	ProbeDistance float64      `json:"probe_distance" yaml:"probe_distance"`
	Damping       float64      `json:"damping" yaml:"damping"`
}

func DefaultEdgeContainment() EdgeContainment {
	return EdgeContainment{
		Sensors: []mgl64.Vec3{
			{1.5, 0, 2},   // front right
			{-1.5, 0, 2},  // front left
			{1.5, 0, -2},  // back right
			{-1.5, 0, -2}, // back left
		},
		ProbeOffset:   probeOffset,
		ProbeDistance: probeFar,
		Damping:       0.5,
	}
}

// Resolve returns the displacement to add to position. It is the zero vector when every sensor is over the surface
// or when there is no surface to test against.
func (e EdgeContainment) Resolve(position mgl64.Vec3, heading float64, surface Surface) mgl64.Vec3 {
	var correction mgl64.Vec3

	if surface == nil {
		return correction
	}

	for _, sensor := range e.Sensors {
		sensorPosition := position.Add(rotateY(sensor, heading)).Add(up.Mul(e.ProbeOffset))

		if ProbeHeight(surface, sensorPosition, e.ProbeDistance).Hit {
			continue
		}

		correction = correction.Add(horizontal(position.Sub(sensorPosition)))
	}

	return correction.Mul(e.Damping)
}
