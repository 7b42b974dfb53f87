package control

import (
	"sync"

	"justapengu.in/ghostrace/internal/race"
)

type Key string

const (
	KeyForward     Key = "forward"
	KeyRotateLeft  Key = "rotate_left"
	KeyRotateRight Key = "rotate_right"
)

// TiltThreshold is how far the tilt reading has to move from level before the car turns.
const TiltThreshold = 0.15

// Source holds the latest control intent. Inputs update it whenever they arrive and the tick loop polls it.
type Source struct {
	logger race.Logger

	mode   race.ControlMode
	intent race.ControlIntent

	mutex sync.RWMutex
}

func NewSource(logger race.Logger) *Source {
	return &Source{
		logger: logger,
		mode:   race.ControlModeKeyboard,
	}
}

func (s *Source) SetKey(key Key, pressed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch key {
	case KeyForward:
		s.intent.Forward = pressed
	case KeyRotateLeft:
		s.intent.RotateLeft = pressed
	case KeyRotateRight:
		s.intent.RotateRight = pressed
	default:
		s.logger.Debugf("Ignoring unknown control key: %s", key)
	}
}

// SetMode switches between keyboard and tilt control. Turning is cleared on every switch, and tilt mode always
// drives forward.
func (s *Source) SetMode(mode race.ControlMode) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.mode = mode
	s.intent.RotateLeft = false
	s.intent.RotateRight = false
	s.intent.Forward = mode == race.ControlModeTilt

	s.logger.Infof("Control mode set to: %s", mode)
}

// ApplyTilt turns the car from a tilt reading between -1 (left) and 1 (right). Readings are ignored outside of
// tilt mode.
func (s *Source) ApplyTilt(rotation float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.mode != race.ControlModeTilt {
		return
	}

	s.intent.RotateLeft = rotation < -TiltThreshold
	s.intent.RotateRight = rotation > TiltThreshold
	s.intent.Forward = true
}

func (s *Source) Intent() race.ControlIntent {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.intent
}

func (s *Source) Mode() race.ControlMode {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.mode
}
