package control

import (
	"context"
	"io"
	"sync"

	"justapengu.in/ghostrace/internal/race"
)

// Opener opens the tilt device, e.g. a serial port or a network stream.
type Opener func(ctx context.Context) (io.ReadCloser, error)

const readBufferSize = 256

// TiltBridge reads tilt readings from a device and feeds them into a Source.
type TiltBridge struct {
	source *Source
	logger race.Logger

	conn  io.ReadCloser
	done  chan struct{}
	mutex sync.Mutex
}

func NewTiltBridge(source *Source, logger race.Logger) *TiltBridge {
	return &TiltBridge{
		source: source,
		logger: logger,
	}
}

// Connect opens the device and switches the source to tilt mode. It reports false if the device could not be
// opened or a device is already connected.
func (b *TiltBridge) Connect(ctx context.Context, open Opener) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.conn != nil {
		b.logger.Warnf("Tilt device is already connected")
		return false
	}

	conn, err := open(ctx)

	if err != nil {
		b.logger.WithError(err).Error("Could not connect to tilt device")
		return false
	}

	b.conn = conn
	b.done = make(chan struct{})

	b.source.SetMode(race.ControlModeTilt)

	go b.read(conn, b.done)

	b.logger.Infof("Connected to tilt device")

	return true
}

// Disconnect closes the device, if any, and puts the source back into keyboard mode.
func (b *TiltBridge) Disconnect() bool {
	b.mutex.Lock()
	conn, done := b.conn, b.done
	b.conn, b.done = nil, nil
	b.mutex.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			b.logger.WithError(err).Error("Could not disconnect from tilt device")
			return false
		}

		<-done
	}

	b.source.SetMode(race.ControlModeKeyboard)

	b.logger.Infof("Disconnected from tilt device")

	return true
}

func (b *TiltBridge) Connected() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.conn != nil
}

func (b *TiltBridge) read(conn io.ReadCloser, done chan struct{}) {
	defer close(done)

	var parser LineParser

	buf := make([]byte, readBufferSize)

	for {
		n, err := conn.Read(buf)

		for _, rotation := range parser.Feed(buf[:n]) {
			b.source.ApplyTilt(rotation)
		}

		if err == io.EOF {
			b.logger.Infof("Tilt device closed the stream")
			break
		} else if err != nil {
			b.logger.WithError(err).Debug("Stopped reading from tilt device")
			break
		}
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.conn == conn {
		b.conn = nil
		b.done = nil
	}
}
