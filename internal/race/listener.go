package race

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

type RaceStarted struct {
	Tick        uint64    `json:"tick"`
	StartedAt   time.Time `json:"started_at"`
	GhostFrames int       `json:"ghost_frames"`
}

type CountdownStep struct {
	// Remaining is 0 for the final "go" step.
	Remaining int `json:"remaining"`
}

type Collision struct {
	Tick     uint64     `json:"tick"`
	Car      CarRole    `json:"car"`
	Other    CarRole    `json:"other"`
	Distance float64    `json:"distance"`
	Position mgl64.Vec3 `json:"position"`
}

type Finish struct {
	Winner  CarRole       `json:"winner"`
	Tick    uint64        `json:"tick"`
	Elapsed time.Duration `json:"elapsed"`
}

type CarUpdate struct {
	Tick  uint64   `json:"tick"`
	Role  CarRole  `json:"role"`
	State CarState `json:"state"`
}

// RaceControl is what listeners may do back to the race host.
type RaceControl interface {
	StartRace() bool
	ResetRace()
	Snapshot() Snapshot

	// SetUpdateInterval changes how often OnCarUpdate is called. Zero stops car updates.
	SetUpdateInterval(interval time.Duration)
}

// Listener consumes race lifecycle events, e.g. to drive countdown overlays or audio in an external UI.
// Events are delivered off the tick goroutine and errors are only logged.
type Listener interface {
	Init(control RaceControl, logger Logger) error

	OnCountdown(step CountdownStep) error
	OnRaceStarted(started RaceStarted) error
	OnCollision(collision Collision) error
	OnFinish(finish Finish) error
	OnReset() error
	OnCarUpdate(update CarUpdate) error
}

type multiListener struct {
	listeners []Listener
}

func MultiListener(listeners ...Listener) Listener {
	return &multiListener{listeners: listeners}
}

func (ml *multiListener) each(fn func(listener Listener) error) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, listener := range ml.listeners {
		listener := listener
		g.Go(func() error {
			return fn(listener)
		})
	}

	return g.Wait()
}

func (ml *multiListener) Init(control RaceControl, logger Logger) error {
	return ml.each(func(listener Listener) error {
		return listener.Init(control, logger)
	})
}

func (ml *multiListener) OnCountdown(step CountdownStep) error {
	return ml.each(func(listener Listener) error {
		return listener.OnCountdown(step)
	})
}

func (ml *multiListener) OnRaceStarted(started RaceStarted) error {
	return ml.each(func(listener Listener) error {
		return listener.OnRaceStarted(started)
	})
}

func (ml *multiListener) OnCollision(collision Collision) error {
	return ml.each(func(listener Listener) error {
		return listener.OnCollision(collision)
	})
}

func (ml *multiListener) OnFinish(finish Finish) error {
	return ml.each(func(listener Listener) error {
		return listener.OnFinish(finish)
	})
}

func (ml *multiListener) OnReset() error {
	return ml.each(func(listener Listener) error {
		return listener.OnReset()
	})
}

func (ml *multiListener) OnCarUpdate(update CarUpdate) error {
	return ml.each(func(listener Listener) error {
		return listener.OnCarUpdate(update)
	})
}

type nilListener struct{}

func (nilListener) Init(_ RaceControl, _ Logger) error {
	return nil
}

func (nilListener) OnCountdown(_ CountdownStep) error {
	return nil
}

func (nilListener) OnRaceStarted(_ RaceStarted) error {
	return nil
}

func (nilListener) OnCollision(_ Collision) error {
	return nil
}

func (nilListener) OnFinish(_ Finish) error {
	return nil
}

func (nilListener) OnReset() error {
	return nil
}

func (nilListener) OnCarUpdate(_ CarUpdate) error {
	return nil
}
