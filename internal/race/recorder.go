package race

import "sync"

// MovementLog records the player's pose each tick while enabled. Recordings are the raw material for new ghost paths.
type MovementLog struct {
	enabled bool
	frames  GhostPath

	mutex sync.RWMutex
}

func NewMovementLog() *MovementLog {
	return &MovementLog{}
}

// SetEnabled turns recording on or off. Turning it on starts a fresh recording.
func (m *MovementLog) SetEnabled(enabled bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.enabled = enabled

	if enabled {
		m.frames = nil
	}
}

func (m *MovementLog) Enabled() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.enabled
}

func (m *MovementLog) Record(state CarState) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.enabled {
		return
	}

	m.frames = append(m.frames, state.Frame())
}

func (m *MovementLog) Frames() GhostPath {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(GhostPath, len(m.frames))
	copy(out, m.frames)

	return out
}

func (m *MovementLog) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.frames)
}

func (m *MovementLog) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.frames = nil
}
