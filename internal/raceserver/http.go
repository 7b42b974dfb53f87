package raceserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi"
	"github.com/go-http-utils/etag"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"justapengu.in/ghostrace/internal/control"
	"justapengu.in/ghostrace/internal/race"
	"justapengu.in/ghostrace/internal/store"
	"justapengu.in/ghostrace/pkg/ghostpath"
)

type HTTP struct {
	server *http.Server
	logger race.Logger

	port uint16
	host *Server
}

func NewHTTP(port uint16, server *Server, logger race.Logger) *HTTP {
	return &HTTP{
		port:   port,
		host:   server,
		logger: logger,
	}
}

func (h *HTTP) Listen() error {
	h.logger.Infof("HTTP server listening on port: %d", h.port)

	h.server = &http.Server{
		Handler: h.Router(),
		Addr:    fmt.Sprintf(":%d", h.port),
	}

	go func() {
		err := h.server.ListenAndServe()

		if err == http.ErrServerClosed {
			return
		} else if err != nil {
			h.logger.WithError(err).Errorf("Could not start HTTP server")
		}
	}()

	return nil
}

func (h *HTTP) Router() http.Handler {
	router := chi.NewRouter()

	router.Route("/api", func(r chi.Router) {
		r.Get("/state", h.state)

		r.Post("/race/start", h.startRace)
		r.Post("/race/reset", h.resetRace)

		r.Post("/control/key", h.controlKey)
		r.Post("/control/mode", h.controlMode)
		r.Post("/control/tilt", h.controlTilt)
		r.Post("/control/tilt/connect", h.tiltConnect)
		r.Post("/control/tilt/disconnect", h.tiltDisconnect)

		r.Get("/recording", h.recording)
		r.Delete("/recording", h.clearRecording)
		r.Post("/recording/start", h.startRecording)
		r.Post("/recording/stop", h.stopRecording)

		r.Get("/recordings", h.listRecordings)
		r.Post("/recordings", h.saveRecording)
		r.Method(http.MethodGet, "/recordings/{id}", etag.Handler(http.HandlerFunc(h.viewRecording), false))
		r.Delete("/recordings/{id}", h.deleteRecording)
		r.Post("/recordings/{id}/ghost", h.loadRecordingAsGhost)

		r.Method(http.MethodGet, "/ghost", etag.Handler(http.HandlerFunc(h.ghost), false))
		r.Method(http.MethodGet, "/ghost/map.png", etag.Handler(http.HandlerFunc(h.ghostMap), false))
	})

	router.Mount("/stream", h.host.stream)
	router.Mount("/metrics", h.host.metrics.Handler())
	router.Get("/debug/state", h.debugState)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debugf("Could not find HTTP response for URL: %s", r.URL.String())

		http.NotFound(w, r)
	})

	return router
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func (h *HTTP) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WithError(err).Debugf("Could not decode request body for %s", r.URL.Path)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}

	return true
}

func (h *HTTP) state(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.host.Snapshot())
}

func (h *HTTP) startRace(w http.ResponseWriter, r *http.Request) {
	if !h.host.StartRace() {
		http.Error(w, "race could not be started", http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *HTTP) resetRace(w http.ResponseWriter, r *http.Request) {
	h.host.ResetRace()

	h.writeJSON(w, http.StatusOK, h.host.Snapshot())
}

type keyRequest struct {
	Key     control.Key `json:"key"`
	Pressed bool        `json:"pressed"`
}

func (h *HTTP) controlKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest

	if !h.readJSON(w, r, &req) {
		return
	}

	switch req.Key {
	case control.KeyForward, control.KeyRotateLeft, control.KeyRotateRight:
	default:
		http.Error(w, "unknown key", http.StatusBadRequest)
		return
	}

	h.host.source.SetKey(req.Key, req.Pressed)

	h.writeJSON(w, http.StatusOK, h.host.source.Intent())
}

type modeRequest struct {
	Mode race.ControlMode `json:"mode"`
}

func (h *HTTP) controlMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest

	if !h.readJSON(w, r, &req) {
		return
	}

	if req.Mode != race.ControlModeKeyboard && req.Mode != race.ControlModeTilt {
		http.Error(w, "unknown control mode", http.StatusBadRequest)
		return
	}

	h.host.source.SetMode(req.Mode)

	h.writeJSON(w, http.StatusOK, h.host.source.Intent())
}

type tiltRequest struct {
	Rotation float64 `json:"rotation"`
}

func (h *HTTP) controlTilt(w http.ResponseWriter, r *http.Request) {
	var req tiltRequest

	if !h.readJSON(w, r, &req) {
		return
	}

	h.host.source.ApplyTilt(req.Rotation)

	h.writeJSON(w, http.StatusOK, h.host.source.Intent())
}

type tiltStatus struct {
	Connected bool             `json:"connected"`
	Mode      race.ControlMode `json:"mode"`
}

func (h *HTTP) tiltConnect(w http.ResponseWriter, r *http.Request) {
	if !h.host.bridge.Connect(h.host.ctx, h.host.openTilt) {
		http.Error(w, "could not connect to tilt device", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, http.StatusOK, tiltStatus{Connected: true, Mode: h.host.source.Mode()})
}

func (h *HTTP) tiltDisconnect(w http.ResponseWriter, r *http.Request) {
	if !h.host.bridge.Disconnect() {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, tiltStatus{Connected: false, Mode: h.host.source.Mode()})
}

func (h *HTTP) recording(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.host.race.MovementLog().Frames())
}

func (h *HTTP) clearRecording(w http.ResponseWriter, r *http.Request) {
	h.host.race.MovementLog().Clear()

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTP) startRecording(w http.ResponseWriter, r *http.Request) {
	h.host.race.MovementLog().SetEnabled(true)
	h.logger.Infof("Started recording player movement")

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTP) stopRecording(w http.ResponseWriter, r *http.Request) {
	log := h.host.race.MovementLog()
	log.SetEnabled(false)
	h.logger.Infof("Stopped recording player movement after %d frames", log.Len())

	w.WriteHeader(http.StatusNoContent)
}

type recordingListItem struct {
	store.RecordingSummary

	CreatedAgo string `json:"created_ago"`
}

func (h *HTTP) listRecordings(w http.ResponseWriter, r *http.Request) {
	recordings, err := h.host.store.ListRecordings()

	if err != nil {
		h.logger.WithError(err).Error("Could not list recordings")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]recordingListItem, 0, len(recordings))

	for _, recording := range recordings {
		items = append(items, recordingListItem{
			RecordingSummary: recording,
			CreatedAgo:       humanize.Time(recording.Created),
		})
	}

	h.writeJSON(w, http.StatusOK, items)
}

type saveRecordingRequest struct {
	Name string `json:"name"`
}

func (h *HTTP) saveRecording(w http.ResponseWriter, r *http.Request) {
	var req saveRecordingRequest

	if !h.readJSON(w, r, &req) {
		return
	}

	frames := h.host.race.MovementLog().Frames()

	if len(frames) == 0 {
		http.Error(w, "nothing has been recorded", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		req.Name = "Recording " + time.Now().Format("2006-01-02 15:04:05")
	}

	recording := &store.Recording{
		Name:   req.Name,
		Frames: frames,
	}

	if err := h.host.store.UpsertRecording(recording); err != nil {
		h.logger.WithError(err).Error("Could not save recording")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.logger.Infof("Saved recording %s (%s) with %d frames", recording.Name, recording.ID, len(frames))

	h.writeJSON(w, http.StatusCreated, store.RecordingSummary{
		ID:        recording.ID,
		Name:      recording.Name,
		Created:   recording.Created,
		NumFrames: len(recording.Frames),
	})
}

func (h *HTTP) loadRecording(w http.ResponseWriter, r *http.Request) (*store.Recording, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))

	if err != nil {
		http.Error(w, "invalid recording id", http.StatusBadRequest)
		return nil, false
	}

	recording, err := h.host.store.LoadRecording(id)

	if errors.Is(err, store.ErrRecordingNotFound) {
		http.NotFound(w, r)
		return nil, false
	} else if err != nil {
		h.logger.WithError(err).Errorf("Could not load recording: %s", id)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}

	return recording, true
}

func (h *HTTP) viewRecording(w http.ResponseWriter, r *http.Request) {
	recording, ok := h.loadRecording(w, r)

	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, recording)
}

func (h *HTTP) deleteRecording(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))

	if err != nil {
		http.Error(w, "invalid recording id", http.StatusBadRequest)
		return
	}

	err = h.host.store.DeleteRecording(id)

	if errors.Is(err, store.ErrRecordingNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		h.logger.WithError(err).Errorf("Could not delete recording: %s", id)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTP) loadRecordingAsGhost(w http.ResponseWriter, r *http.Request) {
	if h.host.race.Started() || h.host.countdown.Running() {
		http.Error(w, "cannot change the ghost during a race", http.StatusConflict)
		return
	}

	recording, ok := h.loadRecording(w, r)

	if !ok {
		return
	}

	h.host.race.LoadGhostPath(recording.Frames)
	h.host.race.Reset()

	h.logger.Infof("Loaded recording %s (%s) as the ghost path", recording.Name, recording.ID)

	h.writeJSON(w, http.StatusOK, h.host.Snapshot())
}

func (h *HTTP) ghost(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.host.race.GhostPath())
}

func (h *HTTP) ghostMap(w http.ResponseWriter, r *http.Request) {
	finish := h.host.race.FinishLine()
	renderer := ghostpath.NewTrackMapRenderer(h.host.race.GhostPath(), h.host.race.MovementLog().Frames(), &finish)

	w.Header().Set("Content-Type", "image/png")

	if _, err := renderer.Render(w); err != nil {
		h.logger.WithError(err).Error("Could not render ghost map")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

func (h *HTTP) debugState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	spew.Fdump(w, h.host.Snapshot())
}

func (h *HTTP) Close() error {
	if h.server == nil {
		return nil
	}

	return h.server.Close()
}
