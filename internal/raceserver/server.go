package raceserver

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"justapengu.in/ghostrace/internal/control"
	"justapengu.in/ghostrace/internal/race"
	"justapengu.in/ghostrace/internal/store"
	"justapengu.in/ghostrace/pkg/ghostpath"
)

var errNoTiltDevice = errors.New("raceserver: no tilt device configured")

// Server hosts a single race: it runs the tick loop, serves the HTTP API and websocket stream, and fans race
// events out to listeners.
type Server struct {
	config *Config

	race      *race.Race
	countdown *race.Countdown
	source    *control.Source
	bridge    *control.TiltBridge
	openTilt  control.Opener
	store     store.Store

	listener race.Listener
	stream   *StreamHub
	metrics  *metrics
	http     *HTTP

	cfn context.CancelFunc
	ctx context.Context

	logger race.Logger

	stopped        chan error
	stopOnce       sync.Once
	updateInterval chan time.Duration
	updateOnce     sync.Once
}

func NewServer(ctx context.Context, config *Config, recordings store.Store, logger race.Logger, listeners ...race.Listener) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ctx, cfn := context.WithCancel(ctx)

	source := control.NewSource(logger)
	metrics := newMetrics()
	stream := NewStreamHub(source, metrics, logger)

	listener := race.MultiListener(append([]race.Listener{stream, metrics}, listeners...)...)

	r := race.NewRace(config.Race, listener, logger)

	server := &Server{
		config:         config,
		race:           r,
		countdown:      race.NewCountdown(r, config.Race.CountdownFrom, config.Race.CountdownStep, listener, logger),
		source:         source,
		bridge:         control.NewTiltBridge(source, logger),
		store:          recordings,
		listener:       listener,
		stream:         stream,
		metrics:        metrics,
		ctx:            ctx,
		cfn:            cfn,
		logger:         logger,
		stopped:        make(chan error, 1),
		updateInterval: make(chan time.Duration),
	}

	server.openTilt = server.openTiltDevice
	server.http = NewHTTP(config.Server.HTTPPort, server, logger)

	return server, nil
}

// Load hands the race its track, cars and ghost path.
func (s *Server) Load() {
	track, terrain := s.config.Track.Surfaces()

	s.race.SetTrack(track, terrain)
	s.race.LoadPlayer()
	s.race.LoadGhost()
	s.race.LoadGhostPath(ghostpath.Load(s.config.Server.GhostPathFile, s.logger))
}

func (s *Server) Start() error {
	s.logger.Infof("Initialising ghostrace at %d ticks per second", s.config.Server.TickRate)

	if err := s.listener.Init(s, s.logger); err != nil {
		return err
	}

	s.Load()

	if s.config.Server.CarUpdateInterval > 0 {
		go s.SetUpdateInterval(time.Duration(s.config.Server.CarUpdateInterval) * time.Millisecond)
	}

	go s.loop()

	return s.http.Listen()
}

func (s *Server) Stop() (err error) {
	s.stopOnce.Do(func() {
		defer func() {
			s.stopped <- err
		}()

		s.logger.Infof("Shutting down ghostrace")

		s.cfn()
		s.countdown.Reset()
		s.bridge.Disconnect()
		s.stream.Close()

		err = s.http.Close()
	})

	return err
}

func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	return <-s.stopped
}

func (s *Server) loop() {
	activeSleepTime := time.Second / time.Duration(s.config.Server.TickRate)
	idleSleepTime := time.Duration(s.config.Server.IdleSleepTime) * time.Millisecond

	if idleSleepTime < activeSleepTime {
		idleSleepTime = activeSleepTime
	}

	sleepTime := activeSleepTime

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugf("Stopping main race loop")
			return
		default:
			s.tick()

			if !s.race.Started() && !s.countdown.Running() && s.stream.NumClients() == 0 {
				if sleepTime != idleSleepTime {
					s.logger.Infof("No race running and nobody watching. Switching to idle sleep mode")
					sleepTime = idleSleepTime
				}
			} else if sleepTime == idleSleepTime {
				s.logger.Infof("Race activity, waking from idle")
				sleepTime = activeSleepTime
			}

			time.Sleep(sleepTime)
		}
	}
}

func (s *Server) tick() {
	start := time.Now()

	s.race.Tick(s.source.Intent(), s.source.Mode())

	s.metrics.ticks.Inc()
	s.metrics.tickDuration.Observe(time.Since(start).Seconds())

	if interval := s.config.Server.StreamInterval; interval > 0 && s.stream.NumClients() > 0 {
		snapshot := s.race.Snapshot()

		if snapshot.Tick%uint64(interval) == 0 {
			s.stream.Broadcast(StreamMessageSnapshot, snapshot)
		}
	}
}

func (s *Server) openTiltDevice(_ context.Context) (io.ReadCloser, error) {
	if s.config.Server.TiltDevice == "" {
		return nil, errNoTiltDevice
	}

	return os.OpenFile(s.config.Server.TiltDevice, os.O_RDONLY, 0)
}

// StartRace counts the race in. It reports false if a countdown is already running or the race cannot start.
func (s *Server) StartRace() bool {
	return s.countdown.Trigger(s.ctx)
}

func (s *Server) ResetRace() {
	s.countdown.Reset()
	s.race.Reset()
}

func (s *Server) Snapshot() race.Snapshot {
	return s.race.Snapshot()
}

func (s *Server) SetUpdateInterval(interval time.Duration) {
	s.updateOnce.Do(func() {
		go s.carUpdates()
	})

	select {
	case s.updateInterval <- interval:
	case <-s.ctx.Done():
	}
}

func (s *Server) carUpdates() {
	var (
		ticker  *time.Ticker
		tickerC <-chan time.Time
	)

	for {
		select {
		case interval := <-s.updateInterval:
			if ticker != nil {
				ticker.Stop()
				ticker, tickerC = nil, nil
			}

			if interval <= 0 {
				s.logger.Infof("Car updates turned off")
				continue
			}

			s.logger.Infof("Will send car updates at interval: %s", interval)
			ticker = time.NewTicker(interval)
			tickerC = ticker.C
		case <-tickerC:
			for _, update := range s.race.CarUpdates() {
				if err := s.listener.OnCarUpdate(update); err != nil {
					s.logger.WithError(err).Errorf("Could not send car update for %s", update.Role)
				}
			}
		case <-s.ctx.Done():
			if ticker != nil {
				ticker.Stop()
			}

			return
		}
	}
}
