package race

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// FinishLine is a point on the track with two distance bands. A car has to leave the departure band before
// coming back inside the tolerance counts as finishing, so sitting on the start line never wins.
type FinishLine struct {
	X                  float64 `json:"x" yaml:"x"`
	Z                  float64 `json:"z" yaml:"z"`
	DepartureThreshold float64 `json:"departure_threshold" yaml:"departure_threshold"`
	Tolerance          float64 `json:"tolerance" yaml:"tolerance"`
}

func DefaultFinishLine() FinishLine {
	return FinishLine{
		X:                  -50,
		Z:                  -140,
		DepartureThreshold: 50,
		Tolerance:          10,
	}
}

func (f FinishLine) Distance(position mgl64.Vec3) float64 {
	return HorizontalDistance(position, mgl64.Vec3{f.X, 0, f.Z})
}

type FinishDetector struct {
	line FinishLine

	started  map[CarRole]bool
	finished bool
	winner   CarRole

	mutex sync.RWMutex
}

func NewFinishDetector(line FinishLine) *FinishDetector {
	return &FinishDetector{
		line:    line,
		started: make(map[CarRole]bool),
	}
}

// Check reports whether this call is the one where car crossed the line. The first crossing ends the race for
// both cars; every later call returns false until Reset.
func (f *FinishDetector) Check(car CarRole, position mgl64.Vec3) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.finished {
		return false
	}

	distance := f.line.Distance(position)

	if !f.started[car] && distance > f.line.DepartureThreshold {
		f.started[car] = true
	}

	if f.started[car] && distance <= f.line.Tolerance {
		f.finished = true
		f.winner = car

		return true
	}

	return false
}

func (f *FinishDetector) Started(car CarRole) bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	return f.started[car]
}

func (f *FinishDetector) Finished() bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	return f.finished
}

func (f *FinishDetector) Winner() (CarRole, bool) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	return f.winner, f.finished
}

func (f *FinishDetector) Reset() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for car := range f.started {
		f.started[car] = false
	}

	f.finished = false
	f.winner = ""
}
