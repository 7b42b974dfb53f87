package race

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var testPath = GhostPath{
	{X: 1, Y: 0, Z: 1, Rotation: 0.1},
	{X: 2, Y: 0, Z: 2, Rotation: 0.2},
	{X: 3, Y: 0, Z: 3, Rotation: 0.3},
}

func TestStepGhostWrapsAtEndOfPath(t *testing.T) {
	var (
		state CarState
		index int
	)

	for i := 0; i < 10; i++ {
		expected := testPath[i%len(testPath)]

		state, index = StepGhost(testPath, index, state, ghostHeightSmoothing)

		if index < 0 || index >= len(testPath) {
			t.Fatalf("step %d: index %d out of range", i, index)
		}

		if index != (i+1)%len(testPath) {
			t.Errorf("step %d: expected next index %d, got %d", i, (i+1)%len(testPath), index)
		}

		if state.Position.X() != expected.X || state.Position.Z() != expected.Z || state.Heading != expected.Rotation {
			t.Errorf("step %d: expected frame %v, got %s", i, expected, state)
		}
	}
}

func TestStepGhostEdgeCases(t *testing.T) {
	start := CarState{Position: mgl64.Vec3{-47, 10, -120}, Heading: 1}

	t.Run("empty path is a no-op", func(t *testing.T) {
		state, index := StepGhost(nil, 0, start, ghostHeightSmoothing)

		if state != start || index != 0 {
			t.Errorf("expected state and index untouched, got %s, %d", state, index)
		}
	})

	t.Run("index past the end restarts", func(t *testing.T) {
		state, index := StepGhost(testPath, 17, start, ghostHeightSmoothing)

		if state.Position.X() != testPath[0].X || index != 1 {
			t.Errorf("expected first frame to be played, got %s, next %d", state, index)
		}
	})

	t.Run("height is smoothed", func(t *testing.T) {
		state, _ := StepGhost(testPath, 0, start, ghostHeightSmoothing)

		if state.Position.Y() != 8.5 {
			t.Errorf("expected height to ease from 10 to 8.5, got %f", state.Position.Y())
		}
	})
}

func TestGhostDriver(t *testing.T) {
	driver := NewGhostDriver()

	var state CarState

	state = driver.Step(state)

	if state != (CarState{}) || driver.Frame() != 0 {
		t.Errorf("stepping without a path should do nothing, got %s at frame %d", state, driver.Frame())
	}

	driver.Load(testPath)

	for i := 0; i < 4; i++ {
		state = driver.Step(state)
	}

	if driver.Frame() != 1 {
		t.Errorf("expected frame 1 after wrapping, got %d", driver.Frame())
	}

	driver.Reset()

	if driver.Frame() != 0 || driver.Len() != len(testPath) {
		t.Errorf("expected rewind to keep the path, got frame %d len %d", driver.Frame(), driver.Len())
	}

	path := driver.Path()
	path[0].X = 100

	if driver.Path()[0].X == 100 {
		t.Errorf("Path should return a copy")
	}
}

func TestMovementLogRoundTrip(t *testing.T) {
	physics := DefaultPhysics()
	rng := rand.New(rand.NewSource(7))

	log := NewMovementLog()
	log.Record(CarState{})

	if log.Len() != 0 {
		t.Fatalf("disabled log should not record")
	}

	log.SetEnabled(true)

	state := DefaultRaceConfig().PlayerSpawn.State()
	var driven []CarState

	for i := 0; i < 200; i++ {
		state = physics.Advance(state, ControlIntent{
			Forward:     rng.Intn(4) != 0,
			RotateLeft:  rng.Intn(3) == 0,
			RotateRight: rng.Intn(3) == 0,
		}, physics.RotateSpeed)

		log.Record(state)
		driven = append(driven, state)
	}

	path := log.Frames()

	if len(path) != len(driven) {
		t.Fatalf("expected %d frames, got %d", len(driven), len(path))
	}

	driver := NewGhostDriver()
	driver.Load(path)

	ghost := DefaultRaceConfig().GhostSpawn.State()

	for i, expected := range driven {
		ghost = driver.Step(ghost)

		if ghost.Position.X() != expected.Position.X() || ghost.Position.Z() != expected.Position.Z() {
			t.Fatalf("frame %d: expected (%f, %f), got (%f, %f)", i, expected.Position.X(), expected.Position.Z(), ghost.Position.X(), ghost.Position.Z())
		}

		if ghost.Heading != expected.Heading {
			t.Errorf("frame %d: expected heading %f, got %f", i, expected.Heading, ghost.Heading)
		}
	}

	log.SetEnabled(true)

	if log.Len() != 0 {
		t.Errorf("re-enabling should start a new recording, got %d frames", log.Len())
	}
}
