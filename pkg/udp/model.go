package udp

import (
	"errors"
	"fmt"
)

// ProtocolVersion is sent in the Version message when a listener connects.
const ProtocolVersion = 1

type Event uint8

const (
	// Send
	EventCountdown   Event = 10
	EventRaceStarted Event = 50
	EventCollision   Event = 51
	EventFinish      Event = 52
	EventReset       Event = 53
	EventCarUpdate   Event = 54
	EventRaceState   Event = 55
	EventVersion     Event = 56

	// Receive
	EventRealTimePositionInterval Event = 200
	EventStartRace                Event = 201
	EventResetRace                Event = 202
	EventGetRaceState             Event = 203
)

var ErrUnknownEvent = errors.New("udp: unknown event")

type Message interface {
	Event() Event
}

type CarRole uint8

const (
	RolePlayer CarRole = 0
	RoleGhost  CarRole = 1
)

func (r CarRole) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleGhost:
		return "ghost"
	default:
		return fmt.Sprintf("CarRole(%d)", uint8(r))
	}
}

type Vec struct {
	X float32 `json:"X"`
	Y float32 `json:"Y"`
	Z float32 `json:"Z"`
}

type Countdown struct {
	Remaining uint8 `json:"Remaining"`
}

func (Countdown) Event() Event {
	return EventCountdown
}

type RaceStarted struct {
	Tick        uint32 `json:"Tick"`
	GhostFrames uint32 `json:"GhostFrames"`
}

func (RaceStarted) Event() Event {
	return EventRaceStarted
}

type Collision struct {
	Tick     uint32  `json:"Tick"`
	Car      CarRole `json:"Car"`
	Other    CarRole `json:"Other"`
	Distance float32 `json:"Distance"`
	WorldPos Vec     `json:"WorldPos"`
}

func (Collision) Event() Event {
	return EventCollision
}

type Finish struct {
	Winner              CarRole `json:"Winner"`
	Tick                uint32  `json:"Tick"`
	ElapsedMilliseconds uint32  `json:"ElapsedMilliseconds"`
}

func (Finish) Event() Event {
	return EventFinish
}

type Reset struct{}

func (Reset) Event() Event {
	return EventReset
}

type CarUpdate struct {
	Tick    uint32  `json:"Tick"`
	Car     CarRole `json:"Car"`
	Pos     Vec     `json:"Pos"`
	Heading float32 `json:"Heading"`
	Speed   float32 `json:"Speed"`
}

func (CarUpdate) Event() Event {
	return EventCarUpdate
}

type RaceState struct {
	Tick        uint32  `json:"Tick"`
	Ready       bool    `json:"Ready"`
	Started     bool    `json:"Started"`
	Finished    bool    `json:"Finished"`
	Winner      CarRole `json:"Winner"`
	GhostFrame  uint32  `json:"GhostFrame"`
	GhostFrames uint32  `json:"GhostFrames"`
}

func (RaceState) Event() Event {
	return EventRaceState
}

type Version uint8

func (Version) Event() Event {
	return EventVersion
}

// RealTimePositionInterval asks for car updates every Milliseconds. Zero turns them off.
type RealTimePositionInterval struct {
	Milliseconds uint16 `json:"Milliseconds"`
}

func (RealTimePositionInterval) Event() Event {
	return EventRealTimePositionInterval
}

type StartRace struct{}

func (StartRace) Event() Event {
	return EventStartRace
}

type ResetRace struct{}

func (ResetRace) Event() Event {
	return EventResetRace
}

type GetRaceState struct{}

func (GetRaceState) Event() Event {
	return EventGetRaceState
}

// Encode writes the event type followed by the message body.
func Encode(message Message) *Packet {
	p := NewPacket(nil)
	p.Write(message.Event())

	switch m := message.(type) {
	case Reset, StartRace, ResetRace, GetRaceState:
	case Version:
		p.Write(uint8(m))
	default:
		p.Write(message)
	}

	return p
}

// Decode reads a single message from data.
func Decode(data []byte) (Message, error) {
	p := NewPacket(data)

	var event Event

	p.Read(&event)

	if err := p.Err(); err != nil {
		return nil, err
	}

	var message Message

	switch event {
	case EventCountdown:
		var m Countdown
		p.Read(&m)
		message = m
	case EventRaceStarted:
		var m RaceStarted
		p.Read(&m)
		message = m
	case EventCollision:
		var m Collision
		p.Read(&m)
		message = m
	case EventFinish:
		var m Finish
		p.Read(&m)
		message = m
	case EventReset:
		message = Reset{}
	case EventCarUpdate:
		var m CarUpdate
		p.Read(&m)
		message = m
	case EventRaceState:
		var m RaceState
		p.Read(&m)
		message = m
	case EventVersion:
		message = Version(p.ReadUint8())
	case EventRealTimePositionInterval:
		var m RealTimePositionInterval
		p.Read(&m)
		message = m
	case EventStartRace:
		message = StartRace{}
	case EventResetRace:
		message = ResetRace{}
	case EventGetRaceState:
		message = GetRaceState{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEvent, event)
	}

	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("udp: could not read %d message: %w", event, err)
	}

	return message, nil
}
