package race

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// ghostHeightSmoothing absorbs vertical noise in recordings so the ghost does not hop.
const ghostHeightSmoothing = 0.15

type RecordedFrame struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Z        float64 `json:"z" yaml:"z"`
	Rotation float64 `json:"rotation" yaml:"rotation"`
}

type GhostPath []RecordedFrame

// StepGhost applies frame frameIndex of path to state and returns the index of the next frame. Horizontal position
// and heading are replayed exactly; height eases towards the recording. An empty path leaves everything untouched.
func StepGhost(path GhostPath, frameIndex int, state CarState, smoothing float64) (CarState, int) {
	if len(path) == 0 {
		return state, frameIndex
	}

	if frameIndex >= len(path) || frameIndex < 0 {
		frameIndex = 0
	}

	frame := path[frameIndex]
	previous := state.Position

	state.Position = mgl64.Vec3{
		frame.X,
		lerp(previous.Y(), frame.Y, smoothing),
		frame.Z,
	}
	state.Heading = frame.Rotation
	state.Speed = HorizontalDistance(previous, state.Position)

	return state, (frameIndex + 1) % len(path)
}

// GhostDriver replays a recorded path, one frame per tick, looping at the end.
type GhostDriver struct {
	path      GhostPath
	frame     int
	smoothing float64

	mutex sync.RWMutex
}

func NewGhostDriver() *GhostDriver {
	return &GhostDriver{smoothing: ghostHeightSmoothing}
}

// Load replaces the path and rewinds. A nil or empty path makes Step a no-op.
func (g *GhostDriver) Load(path GhostPath) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.path = path
	g.frame = 0
}

func (g *GhostDriver) Step(state CarState) CarState {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	state, g.frame = StepGhost(g.path, g.frame, state, g.smoothing)

	return state
}

// Reset rewinds to the first frame, keeping the loaded path.
func (g *GhostDriver) Reset() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.frame = 0
}

func (g *GhostDriver) Frame() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return g.frame
}

func (g *GhostDriver) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return len(g.path)
}

func (g *GhostDriver) Path() GhostPath {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make(GhostPath, len(g.path))
	copy(out, g.path)

	return out
}
