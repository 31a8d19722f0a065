package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/ohler55/ojg/oj"
	"github.com/rs/cors"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/environment"
	"github.com/velora-sim/velora/pkg/simulation/race"
	"github.com/velora-sim/velora/version"
)

type createRaceRequest struct {
	Laps     int                 `json:"laps"`
	Cars     int                 `json:"cars"`
	Seed     int64               `json:"seed"`
	TimeStep float64             `json:"timeStep"`
	Roster   []model.RosterEntry `json:"roster"`
}

type injectEventRequest struct {
	Type  string `json:"type"`
	CarID int    `json:"carId"`
}

type setWeatherRequest struct {
	Weather      string  `json:"weather"`
	TemperatureC float64 `json:"temperatureC"`
	HumidityPct  float64 `json:"humidityPct"`
}

type syncWeatherRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler builds the HTTP API around the manager.
func Handler(m *Manager) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("POST /api/race", m.handleCreateRace)
	mux.HandleFunc("GET /api/race", m.handleRaceStatus)
	mux.HandleFunc("POST /api/race/start", m.handleStart)
	mux.HandleFunc("POST /api/race/pause", m.handlePause)
	mux.HandleFunc("POST /api/race/resume", m.handleResume)
	mux.HandleFunc("POST /api/race/reset", m.handleReset)
	mux.HandleFunc("GET /api/telemetry", m.handleTelemetry)
	mux.HandleFunc("GET /api/telemetry/leaderboard", m.handleLeaderboard)
	mux.HandleFunc("GET /api/telemetry/events", m.handleEvents)
	mux.HandleFunc("POST /api/event", m.handleInjectEvent)
	mux.HandleFunc("POST /api/weather", m.handleSetWeather)
	mux.HandleFunc("POST /api/weather/sync", m.handleSyncWeather)
	return newCORS().Handler(mux)
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
	})
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.FullVersion})
}

func (m *Manager) handleCreateRace(w http.ResponseWriter, r *http.Request) {
	var req createRaceRequest
	if !readJSON(w, r, &req) {
		return
	}
	opts := []race.Option{}
	if req.Laps > 0 {
		opts = append(opts, race.WithLapTarget(req.Laps))
	}
	if req.Seed != 0 {
		opts = append(opts, race.WithSeed(req.Seed))
	}
	if req.TimeStep > 0 {
		opts = append(opts, race.WithTimeStep(req.TimeStep))
	}
	if len(req.Roster) > 0 {
		opts = append(opts, race.WithRoster(req.Roster))
	} else if req.Cars > 0 {
		opts = append(opts, race.WithGeneratedCars(req.Cars))
	}
	created, err := m.CreateRace(opts...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap := created.Snapshot()
	writeJSON(w, http.StatusCreated, &snap)
}

func (m *Manager) handleRaceStatus(w http.ResponseWriter, _ *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"raceId":  cur.ID(),
		"state":   cur.State().String(),
		"simTime": cur.SimTime(),
	})
}

func (m *Manager) handleStart(w http.ResponseWriter, _ *http.Request) {
	if err := m.StartRace(); err != nil {
		status := http.StatusConflict
		if errors.Is(err, ErrNoRace) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	m.writeStatus(w)
}

func (m *Manager) handlePause(w http.ResponseWriter, _ *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	cur.Pause()
	m.writeStatus(w)
}

func (m *Manager) handleResume(w http.ResponseWriter, _ *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	cur.Resume()
	m.writeStatus(w)
}

func (m *Manager) handleReset(w http.ResponseWriter, _ *http.Request) {
	if err := m.ResetRace(); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	m.writeStatus(w)
}

func (m *Manager) writeStatus(w http.ResponseWriter) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"raceId": cur.ID(),
		"state":  cur.State().String(),
	})
}

func (m *Manager) handleTelemetry(w http.ResponseWriter, _ *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	snap := cur.Snapshot()
	writeJSON(w, http.StatusOK, &snap)
}

func (m *Manager) handleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, cur.Leaderboard())
}

func (m *Manager) handleEvents(w http.ResponseWriter, _ *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, cur.Events())
}

func (m *Manager) handleInjectEvent(w http.ResponseWriter, r *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var req injectEventRequest
	if !readJSON(w, r, &req) {
		return
	}
	switch req.Type {
	case "accident":
		err = cur.TriggerAccident(req.CarID)
	case "engineFailure":
		err = cur.TriggerEngineFailure(req.CarID)
	case "pitStop":
		err = cur.TriggerPitStop(req.CarID)
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown event type "+req.Type))
		return
	}
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, race.ErrCarNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (m *Manager) handleSetWeather(w http.ResponseWriter, r *http.Request) {
	cur, err := m.Race()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var req setWeatherRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Weather != "" {
		cur.SetWeather(environment.ParseWeather(req.Weather))
	}
	if req.TemperatureC != 0 || req.HumidityPct != 0 {
		cur.SetConditions(req.TemperatureC, req.HumidityPct)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (m *Manager) handleSyncWeather(w http.ResponseWriter, r *http.Request) {
	var req syncWeatherRequest
	if !readJSON(w, r, &req) {
		return
	}
	cond, err := m.SyncWeather(r.Context(), req.Latitude, req.Longitude)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"weather":      cond.Weather.String(),
		"temperatureC": cond.TemperatureC,
		"humidityPct":  cond.HumidityPct,
		"synthetic":    cond.Synthetic,
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := oj.Unmarshal(body, target); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := oj.Marshal(payload)
	if err != nil {
		log.Error("encoding response", log.ErrorField(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
