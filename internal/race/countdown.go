package race

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCountdownRunning = errors.New("race: countdown already running")
	ErrRaceNotReady     = errors.New("race: race assets are not loaded yet")
	ErrRaceInProgress   = errors.New("race: race is already in progress")
	ErrRaceFinished     = errors.New("race: race has finished and must be reset first")
	ErrRaceNotStarted   = errors.New("race: race could not be started after the countdown")
)

// Countdown counts a race in (3, 2, 1, go) and then starts it. Only one countdown may run at a time.
type Countdown struct {
	race     *Race
	listener Listener
	logger   Logger

	from int
	step time.Duration

	running bool
	cancel  context.CancelFunc
	mutex   sync.Mutex
}

func NewCountdown(race *Race, from int, step time.Duration, listener Listener, logger Logger) *Countdown {
	if listener == nil {
		listener = nilListener{}
	}

	return &Countdown{
		race:     race,
		listener: listener,
		logger:   logger,
		from:     from,
		step:     step,
	}
}

// Trigger starts the countdown in the background. It returns false if a countdown is already running or the race
// cannot be started.
func (c *Countdown) Trigger(ctx context.Context) bool {
	ctx, err := c.begin(ctx)

	if err != nil {
		c.logger.WithError(err).Warn("Could not start countdown")
		return false
	}

	go func() {
		defer c.end()

		if err := c.run(ctx); err != nil {
			c.logger.WithError(err).Warn("Countdown did not complete")
		}
	}()

	return true
}

// Run counts down and starts the race, blocking until it has done so or ctx is cancelled.
func (c *Countdown) Run(ctx context.Context) error {
	ctx, err := c.begin(ctx)

	if err != nil {
		return err
	}

	defer c.end()

	return c.run(ctx)
}

func (c *Countdown) Running() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.running
}

// Reset stops a running countdown, if any.
func (c *Countdown) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Countdown) begin(ctx context.Context) (context.Context, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.running {
		return nil, ErrCountdownRunning
	}

	if !c.race.Ready() {
		return nil, ErrRaceNotReady
	}

	if c.race.Started() {
		return nil, ErrRaceInProgress
	}

	if c.race.Finished() {
		return nil, ErrRaceFinished
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.running = true

	return ctx, nil
}

func (c *Countdown) end() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.running = false
}

func (c *Countdown) run(ctx context.Context) error {
	for remaining := c.from; remaining > 0; remaining-- {
		c.emit(remaining)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.step):
		}
	}

	c.emit(0)

	if !c.race.Start() {
		return ErrRaceNotStarted
	}

	return nil
}

func (c *Countdown) emit(remaining int) {
	c.logger.Debugf("Countdown: %d", remaining)

	if err := c.listener.OnCountdown(CountdownStep{Remaining: remaining}); err != nil {
		c.logger.WithError(err).Error("On countdown listener returned an error")
	}
}
