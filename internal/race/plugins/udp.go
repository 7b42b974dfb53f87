package plugins

import (
	"context"
	"fmt"
	"net"
	"time"

	"justapengu.in/ghostrace/internal/race"
	"justapengu.in/ghostrace/pkg/udp"
)

// UDPPlugin forwards race events to an external UI over UDP, and accepts a few commands back from it.
type UDPPlugin struct {
	localAddress  *net.UDPAddr
	remoteAddress *net.UDPAddr
	packetConn    *net.UDPConn

	control race.RaceControl
	logger  race.Logger
	ctx     context.Context
	cfn     context.CancelFunc

	shutdown bool
}

func NewUDPPlugin(listenPort int, sendAddress string) (*UDPPlugin, error) {
	remoteAddress, err := net.ResolveUDPAddr("udp", sendAddress)

	if err != nil {
		return nil, err
	}

	localAddress, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", listenPort))

	if err != nil {
		return nil, err
	}

	ctx, cfn := context.WithCancel(context.Background())

	p := &UDPPlugin{
		localAddress:  localAddress,
		remoteAddress: remoteAddress,
		ctx:           ctx,
		cfn:           cfn,
	}

	return p, nil
}

func (u *UDPPlugin) listen() {
	for {
		select {
		case <-u.ctx.Done():
			return
		default:
			buf := make([]byte, 1024)

			_ = u.packetConn.SetDeadline(time.Now().Add(time.Minute))

			n, _, err := u.packetConn.ReadFrom(buf)

			if err != nil {
				if e, ok := err.(*net.OpError); ok && !e.Timeout() {
					if u.ctx.Err() == nil {
						u.logger.WithError(err).Errorf("udp plugin: fatal error. udp plugin will not run for this race.")
					}

					u.shutdown = true
					return
				}

				continue
			}

			if err := u.handleConnection(buf[:n]); err != nil {
				u.logger.WithError(err).Error("udp plugin: could not handle udp message")
			}
		}
	}
}

func (u *UDPPlugin) Init(control race.RaceControl, logger race.Logger) error {
	u.control = control
	u.logger = logger

	var err error

	u.packetConn, err = net.DialUDP("udp", u.localAddress, u.remoteAddress)

	if err != nil {
		return err
	}

	go u.listen()

	return u.send(udp.Version(udp.ProtocolVersion))
}

func (u *UDPPlugin) Shutdown() error {
	u.logger.Infof("Shutting down UDP plugin")

	u.cfn()

	return u.packetConn.Close()
}

func (u *UDPPlugin) handleConnection(data []byte) error {
	message, err := udp.Decode(data)

	if err != nil {
		return err
	}

	switch m := message.(type) {
	case udp.RealTimePositionInterval:
		u.control.SetUpdateInterval(time.Millisecond * time.Duration(m.Milliseconds))
	case udp.StartRace:
		if !u.control.StartRace() {
			u.logger.Warnf("udp plugin: race could not be started")
		}
	case udp.ResetRace:
		u.control.ResetRace()
	case udp.GetRaceState:
		return u.send(raceStateMessage(u.control.Snapshot()))
	default:
		return fmt.Errorf("udp plugin: unexpected message type: %d", message.Event())
	}

	return nil
}

func (u *UDPPlugin) send(message udp.Message) error {
	if u.shutdown {
		return nil
	}

	return udp.Encode(message).WriteToUDPConn(u.packetConn)
}

func carRole(role race.CarRole) udp.CarRole {
	if role == race.RoleGhost {
		return udp.RoleGhost
	}

	return udp.RolePlayer
}

func raceStateMessage(snapshot race.Snapshot) udp.RaceState {
	return udp.RaceState{
		Tick:        uint32(snapshot.Tick),
		Ready:       snapshot.Ready,
		Started:     snapshot.Started,
		Finished:    snapshot.Finished,
		Winner:      carRole(snapshot.Winner),
		GhostFrame:  uint32(snapshot.GhostFrame),
		GhostFrames: uint32(snapshot.GhostFrames),
	}
}

func (u *UDPPlugin) OnCountdown(step race.CountdownStep) error {
	return u.send(udp.Countdown{Remaining: uint8(step.Remaining)})
}

func (u *UDPPlugin) OnRaceStarted(started race.RaceStarted) error {
	return u.send(udp.RaceStarted{
		Tick:        uint32(started.Tick),
		GhostFrames: uint32(started.GhostFrames),
	})
}

func (u *UDPPlugin) OnCollision(collision race.Collision) error {
	return u.send(udp.Collision{
		Tick:     uint32(collision.Tick),
		Car:      carRole(collision.Car),
		Other:    carRole(collision.Other),
		Distance: float32(collision.Distance),
		WorldPos: udp.Vec{
			X: float32(collision.Position.X()),
			Y: float32(collision.Position.Y()),
			Z: float32(collision.Position.Z()),
		},
	})
}

func (u *UDPPlugin) OnFinish(finish race.Finish) error {
	return u.send(udp.Finish{
		Winner:              carRole(finish.Winner),
		Tick:                uint32(finish.Tick),
		ElapsedMilliseconds: uint32(finish.Elapsed.Milliseconds()),
	})
}

func (u *UDPPlugin) OnReset() error {
	return u.send(udp.Reset{})
}

func (u *UDPPlugin) OnCarUpdate(update race.CarUpdate) error {
	return u.send(udp.CarUpdate{
		Tick: uint32(update.Tick),
		Car:  carRole(update.Role),
		Pos: udp.Vec{
			X: float32(update.State.Position.X()),
			Y: float32(update.State.Position.Y()),
			Z: float32(update.State.Position.Z()),
		},
		Heading: float32(update.State.Heading),
		Speed:   float32(update.State.Speed),
	})
}
