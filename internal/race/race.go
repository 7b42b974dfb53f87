package race

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hako/durafmt"
)

type ControlMode string

const (
	ControlModeKeyboard ControlMode = "keyboard"
	ControlModeTilt     ControlMode = "tilt"
)

// Race owns every piece of per-race state and advances it one tick at a time. Assets arrive asynchronously, so
// each tick checks what is ready and skips the work that depends on anything missing.
type Race struct {
	config   RaceConfig
	listener Listener
	logger   Logger
	now      func() time.Time

	track, terrain Surface

	player *Car
	ghost  *Car

	ghostDriver *GhostDriver
	finish      *FinishDetector
	movementLog *MovementLog
	camera      Camera

	started   bool
	startedAt time.Time
	placed    bool

	tick         uint64
	frameCounter int
	cachedHeight float64

	contact map[CarRole]bool

	mutex sync.RWMutex
}

func NewRace(config RaceConfig, listener Listener, logger Logger) *Race {
	if listener == nil {
		listener = nilListener{}
	}

	return &Race{
		config:   config,
		listener: listener,
		logger:   logger,
		now:      time.Now,

		player: &Car{Role: RolePlayer, Spawn: config.PlayerSpawn.State()},
		ghost:  &Car{Role: RoleGhost, Spawn: config.GhostSpawn.State()},

		ghostDriver: NewGhostDriver(),
		finish:      NewFinishDetector(config.FinishLine),
		movementLog: NewMovementLog(),
		camera:      config.Camera,

		contact: make(map[CarRole]bool),
	}
}

// SetTrack hands the race its drivable geometry. terrain is optional; a nil track means the track is not loaded.
func (r *Race) SetTrack(track, terrain Surface) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.track = track
	r.terrain = terrain
	r.placed = false

	r.placeIfReady()
}

func (r *Race) LoadPlayer() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.player.Loaded = true
	r.player.respawn()
	r.cachedHeight = r.player.State.Position.Y()

	r.placeIfReady()
}

func (r *Race) LoadGhost() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.ghost.Loaded = true
	r.ghost.respawn()

	r.placeIfReady()
}

// LoadGhostPath replaces the recording the ghost replays. An empty path leaves the ghost parked on the grid.
func (r *Race) LoadGhostPath(path GhostPath) {
	r.ghostDriver.Load(path)

	if len(path) == 0 {
		r.logger.Warnf("No ghost path loaded, the ghost car will not move")
		return
	}

	r.logger.Infof("Loaded ghost path with %d frames", len(path))
}

func (r *Race) Ready() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.ready()
}

func (r *Race) ready() bool {
	return r.track != nil && r.player.Loaded && r.ghost.Loaded
}

func (r *Race) placeIfReady() {
	if r.placed || !r.ready() {
		return
	}

	r.player.State.Position = PlaceOnSurface(r.track, r.player.State.Position)
	r.cachedHeight = r.player.State.Position.Y()
	r.placed = true

	r.logger.Infof("All race assets ready. Player placed at %s", r.player.State)
}

// Start begins the race. It reports false when assets are still loading, the race is running, or it has already
// been won and needs a Reset first.
func (r *Race) Start() bool {
	r.mutex.Lock()

	if r.started || !r.ready() || r.finish.Finished() {
		r.mutex.Unlock()
		return false
	}

	r.started = true
	r.startedAt = r.now()

	started := RaceStarted{
		Tick:        r.tick,
		StartedAt:   r.startedAt,
		GhostFrames: r.ghostDriver.Len(),
	}

	r.mutex.Unlock()

	r.logger.Infof("Race started")

	go func() {
		if err := r.listener.OnRaceStarted(started); err != nil {
			r.logger.WithError(err).Error("On race started listener returned an error")
		}
	}()

	return true
}

// Finished reports whether a car has won. It stays true until Reset.
func (r *Race) Finished() bool {
	return r.finish.Finished()
}

// Stop halts the race without clearing any of its state.
func (r *Race) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.started = false
}

func (r *Race) Started() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.started
}

// Reset prepares for another race: finish flags are cleared, the ghost is rewound and both cars go back to the grid.
// Nothing is reallocated and loaded assets are kept.
func (r *Race) Reset() {
	r.mutex.Lock()

	r.started = false
	r.finish.Reset()
	r.ghostDriver.Reset()

	r.player.respawn()
	r.ghost.respawn()

	if r.track != nil {
		r.player.State.Position = PlaceOnSurface(r.track, r.player.State.Position)
	}

	r.cachedHeight = r.player.State.Position.Y()
	r.frameCounter = 0
	r.camera.reset()

	for role := range r.contact {
		r.contact[role] = false
	}

	r.mutex.Unlock()

	r.logger.Infof("Race reset")

	go func() {
		if err := r.listener.OnReset(); err != nil {
			r.logger.WithError(err).Error("On reset listener returned an error")
		}
	}()
}

func (r *Race) MovementLog() *MovementLog {
	return r.movementLog
}

// GhostPath returns a copy of the loaded ghost path.
func (r *Race) GhostPath() GhostPath {
	return r.ghostDriver.Path()
}

func (r *Race) FinishLine() FinishLine {
	return r.config.FinishLine
}

// Tick runs one frame of the simulation.
func (r *Race) Tick(intent ControlIntent, mode ControlMode) {
	r.mutex.Lock()

	r.tick++

	if r.player.Loaded {
		r.camera.Follow(r.player.State)
	}

	if !r.started {
		r.mutex.Unlock()
		return
	}

	var collisions []Collision

	if collision, ok := r.movePlayer(intent, mode); ok {
		collisions = append(collisions, collision)
	}

	if collision, ok := r.moveGhost(); ok {
		collisions = append(collisions, collision)
	}

	finish, finished := r.checkFinish()

	r.mutex.Unlock()

	for _, collision := range collisions {
		collision := collision

		go func() {
			if err := r.listener.OnCollision(collision); err != nil {
				r.logger.WithError(err).Error("On collision listener returned an error")
			}
		}()
	}

	if finished {
		r.logger.Infof("Race finished! Winner: %s in %s", finish.Winner, durafmt.Parse(finish.Elapsed).String())

		go func() {
			if err := r.listener.OnFinish(finish); err != nil {
				r.logger.WithError(err).Error("On finish listener returned an error")
			}
		}()
	}
}

func (r *Race) movePlayer(intent ControlIntent, mode ControlMode) (Collision, bool) {
	if !r.player.Loaded || r.track == nil {
		return Collision{}, false
	}

	rotateSpeed := r.config.Physics.RotateSpeed

	if mode == ControlModeTilt {
		rotateSpeed = r.config.Physics.TiltRotateSpeed
	}

	state := r.config.Physics.Advance(r.player.State, intent, rotateSpeed)

	// edge containment runs every tick.
	state.Position = state.Position.Add(r.config.EdgeContainment.Resolve(state.Position, state.Heading, r.track))

	var (
		collision Collision
		collided  bool
	)

	if r.ghost.Loaded {
		result := r.config.Collision.Resolve(state, r.ghost.State, r.config.PlayerCollision)
		state = result.Apply(state)
		collision, collided = r.contactEvent(RolePlayer, RoleGhost, result, state.Position)
	}

	r.frameCounter++

	if r.frameCounter%r.config.HeightProbeInterval == 0 {
		if height, ok := GroundHeight(r.track, r.terrain, state.Position); ok {
			r.cachedHeight = height
		}
	}

	state.Position = mgl64.Vec3{
		state.Position.X(),
		lerp(state.Position.Y(), r.cachedHeight, r.config.HeightSmoothing),
		state.Position.Z(),
	}

	r.player.State = state
	r.movementLog.Record(state)

	return collision, collided
}

func (r *Race) moveGhost() (Collision, bool) {
	if !r.ghost.Loaded {
		return Collision{}, false
	}

	state := r.ghostDriver.Step(r.ghost.State)

	var (
		collision Collision
		collided  bool
	)

	if r.player.Loaded {
		result := r.config.Collision.Resolve(state, r.player.State, r.config.GhostCollision)
		state = result.Apply(state)
		collision, collided = r.contactEvent(RoleGhost, RolePlayer, result, state.Position)
	}

	r.ghost.State = state

	return collision, collided
}

// contactEvent reports a collision only on the first tick of a contact.
func (r *Race) contactEvent(car, other CarRole, result CollisionResult, position mgl64.Vec3) (Collision, bool) {
	wasInContact := r.contact[car]
	r.contact[car] = result.Collided

	if !result.Collided || wasInContact {
		return Collision{}, false
	}

	return Collision{
		Tick:     r.tick,
		Car:      car,
		Other:    other,
		Distance: result.Distance,
		Position: position,
	}, true
}

func (r *Race) checkFinish() (Finish, bool) {
	var winner CarRole

	switch {
	case r.player.Loaded && r.finish.Check(RolePlayer, r.player.State.Position):
		winner = RolePlayer
	case r.ghost.Loaded && r.finish.Check(RoleGhost, r.ghost.State.Position):
		winner = RoleGhost
	default:
		return Finish{}, false
	}

	r.started = false

	return Finish{
		Winner:  winner,
		Tick:    r.tick,
		Elapsed: r.now().Sub(r.startedAt),
	}, true
}

// CarUpdates returns the current state of every loaded car.
func (r *Race) CarUpdates() []CarUpdate {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var updates []CarUpdate

	for _, car := range []*Car{r.player, r.ghost} {
		if !car.Loaded {
			continue
		}

		updates = append(updates, CarUpdate{Tick: r.tick, Role: car.Role, State: car.State})
	}

	return updates
}

type CameraState struct {
	Position mgl64.Vec3 `json:"position"`
	LookAt   mgl64.Vec3 `json:"look_at"`
}

type Snapshot struct {
	Tick     uint64  `json:"tick"`
	Ready    bool    `json:"ready"`
	Started  bool    `json:"started"`
	Finished bool    `json:"finished"`
	Winner   CarRole `json:"winner,omitempty"`

	Player Car `json:"player"`
	Ghost  Car `json:"ghost"`

	GhostFrame  int `json:"ghost_frame"`
	GhostFrames int `json:"ghost_frames"`

	Recording      bool `json:"recording"`
	RecordedFrames int  `json:"recorded_frames"`

	Camera CameraState `json:"camera"`
}

// Snapshot returns a copy of the race state that is safe to hand to other goroutines.
func (r *Race) Snapshot() Snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	winner, finished := r.finish.Winner()

	return Snapshot{
		Tick:     r.tick,
		Ready:    r.ready(),
		Started:  r.started,
		Finished: finished,
		Winner:   winner,

		Player: *r.player,
		Ghost:  *r.ghost,

		GhostFrame:  r.ghostDriver.Frame(),
		GhostFrames: r.ghostDriver.Len(),

		Recording:      r.movementLog.Enabled(),
		RecordedFrames: r.movementLog.Len(),

		Camera: CameraState{
			Position: r.camera.Position,
			LookAt:   r.camera.LookAt,
		},
	}
}
