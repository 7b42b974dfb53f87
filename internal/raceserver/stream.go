package raceserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"justapengu.in/ghostrace/internal/control"
	"justapengu.in/ghostrace/internal/race"
)

const (
	streamWriteWait      = 5 * time.Second
	streamSendBufferSize = 64
)

type StreamMessageType string

const (
	StreamMessageSnapshot    StreamMessageType = "snapshot"
	StreamMessageCountdown   StreamMessageType = "countdown"
	StreamMessageRaceStarted StreamMessageType = "race_started"
	StreamMessageCollision   StreamMessageType = "collision"
	StreamMessageFinish      StreamMessageType = "finish"
	StreamMessageReset       StreamMessageType = "reset"
	StreamMessageCarUpdate   StreamMessageType = "car_update"
)

type StreamMessage struct {
	Type StreamMessageType `json:"type"`
	Data interface{}       `json:"data"`
}

// StreamInput is sent by clients to drive the player car.
type StreamInput struct {
	Type     string           `json:"type"`
	Key      control.Key      `json:"key,omitempty"`
	Pressed  bool             `json:"pressed,omitempty"`
	Mode     race.ControlMode `json:"mode,omitempty"`
	Rotation float64          `json:"rotation,omitempty"`
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// StreamHub pushes race events and periodic snapshots to websocket clients, and feeds their input into the
// control source.
type StreamHub struct {
	source  *control.Source
	logger  race.Logger
	metrics *metrics

	upgrader websocket.Upgrader

	clients map[*streamClient]bool
	mutex   sync.RWMutex
}

func NewStreamHub(source *control.Source, metrics *metrics, logger race.Logger) *StreamHub {
	return &StreamHub{
		source:  source,
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*streamClient]bool),
	}
}

func (h *StreamHub) NumClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *StreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)

	if err != nil {
		h.logger.WithError(err).Error("Could not upgrade stream connection")
		return
	}

	client := &streamClient{
		conn: conn,
		send: make(chan []byte, streamSendBufferSize),
	}

	h.add(client)

	go h.write(client)

	h.read(client)
}

func (h *StreamHub) add(client *streamClient) {
	h.mutex.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mutex.Unlock()

	h.metrics.streamClients.Set(float64(n))
	h.logger.Debugf("Stream client connected from %s (%d connected)", client.conn.RemoteAddr(), n)
}

func (h *StreamHub) remove(client *streamClient) {
	h.mutex.Lock()

	if !h.clients[client] {
		h.mutex.Unlock()
		return
	}

	delete(h.clients, client)
	close(client.send)
	n := len(h.clients)

	h.mutex.Unlock()

	h.metrics.streamClients.Set(float64(n))
	h.logger.Debugf("Stream client disconnected (%d connected)", n)
}

func (h *StreamHub) read(client *streamClient) {
	defer func() {
		h.remove(client)
		_ = client.conn.Close()
	}()

	for {
		_, payload, err := client.conn.ReadMessage()

		if err != nil {
			return
		}

		var input StreamInput

		if err := json.Unmarshal(payload, &input); err != nil {
			h.logger.WithError(err).Debug("Discarding malformed stream input")
			continue
		}

		h.apply(input)
	}
}

func (h *StreamHub) apply(input StreamInput) {
	switch input.Type {
	case "key":
		h.source.SetKey(input.Key, input.Pressed)
	case "mode":
		h.source.SetMode(input.Mode)
	case "tilt":
		h.source.ApplyTilt(input.Rotation)
	default:
		h.logger.Debugf("Unknown stream input type: %s", input.Type)
	}
}

func (h *StreamHub) write(client *streamClient) {
	for message := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))

		if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.WithError(err).Debug("Could not write to stream client")
			_ = client.conn.Close()
			return
		}
	}

	_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Broadcast sends a message to every client. Clients that cannot keep up are dropped.
func (h *StreamHub) Broadcast(messageType StreamMessageType, data interface{}) {
	if h.NumClients() == 0 {
		return
	}

	encoded, err := json.Marshal(StreamMessage{Type: messageType, Data: data})

	if err != nil {
		h.logger.WithError(err).Errorf("Could not encode %s stream message", messageType)
		return
	}

	var slow []*streamClient

	h.mutex.RLock()

	for client := range h.clients {
		select {
		case client.send <- encoded:
		default:
			slow = append(slow, client)
		}
	}

	h.mutex.RUnlock()

	for _, client := range slow {
		h.logger.Warnf("Stream client %s is not keeping up, disconnecting", client.conn.RemoteAddr())
		h.remove(client)
	}
}

// Close disconnects every client.
func (h *StreamHub) Close() {
	h.mutex.RLock()
	clients := make([]*streamClient, 0, len(h.clients))

	for client := range h.clients {
		clients = append(clients, client)
	}

	h.mutex.RUnlock()

	for _, client := range clients {
		h.remove(client)
	}
}

func (h *StreamHub) Init(_ race.RaceControl, _ race.Logger) error {
	return nil
}

func (h *StreamHub) OnCountdown(step race.CountdownStep) error {
	h.Broadcast(StreamMessageCountdown, step)

	return nil
}

func (h *StreamHub) OnRaceStarted(started race.RaceStarted) error {
	h.Broadcast(StreamMessageRaceStarted, started)

	return nil
}

func (h *StreamHub) OnCollision(collision race.Collision) error {
	h.Broadcast(StreamMessageCollision, collision)

	return nil
}

func (h *StreamHub) OnFinish(finish race.Finish) error {
	h.Broadcast(StreamMessageFinish, finish)

	return nil
}

func (h *StreamHub) OnReset() error {
	h.Broadcast(StreamMessageReset, nil)

	return nil
}

func (h *StreamHub) OnCarUpdate(update race.CarUpdate) error {
	h.Broadcast(StreamMessageCarUpdate, update)

	return nil
}
