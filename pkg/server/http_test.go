package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-sim/velora/pkg/simulation/track"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	prof, err := track.Ring(1000, track.DefaultProfileParams())
	require.NoError(t, err)
	m := NewManager(prof)
	t.Cleanup(m.Close)
	return m
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (int, any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.Len() == 0 {
		return rec.Code, nil
	}
	parsed, err := oj.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	return rec.Code, parsed
}

func first(t *testing.T, parsed any, path string) any {
	t.Helper()
	results := jp.MustParseString(path).Get(parsed)
	require.NotEmpty(t, results, "no match for %s", path)
	return results[0]
}

func TestRaceLifecycle(t *testing.T) {
	h := Handler(testManager(t))

	// no race yet
	code, _ := doJSON(t, h, http.MethodGet, "/api/race", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body := doJSON(t, h, http.MethodPost, "/api/race",
		`{"laps": 3, "cars": 4, "seed": 42}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "NotStarted", first(t, body, "$.state"))
	assert.Len(t, jp.MustParseString("$.cars[*]").Get(body), 4)

	code, body = doJSON(t, h, http.MethodPost, "/api/race/start", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Running", first(t, body, "$.state"))

	// starting twice conflicts
	code, _ = doJSON(t, h, http.MethodPost, "/api/race/start", "")
	assert.Equal(t, http.StatusConflict, code)

	code, body = doJSON(t, h, http.MethodPost, "/api/race/pause", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Paused", first(t, body, "$.state"))

	code, body = doJSON(t, h, http.MethodPost, "/api/race/resume", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Running", first(t, body, "$.state"))

	code, body = doJSON(t, h, http.MethodPost, "/api/race/reset", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "NotStarted", first(t, body, "$.state"))
}

func TestCreateRaceWithRoster(t *testing.T) {
	h := Handler(testManager(t))
	code, body := doJSON(t, h, http.MethodPost, "/api/race",
		`{"laps": 2, "roster": [
			{"name": "Viper", "maxSpeedKmh": 300},
			{"name": "Cobra", "maxSpeedKmh": 290, "pitLaps": [2]}
		]}`)
	require.Equal(t, http.StatusCreated, code)
	names := jp.MustParseString("$.cars[*].name").Get(body)
	assert.ElementsMatch(t, []any{"Viper", "Cobra"}, names)
}

func TestCreateRaceValidation(t *testing.T) {
	h := Handler(testManager(t))
	code, body := doJSON(t, h, http.MethodPost, "/api/race", `{"timeStep": -1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, first(t, body, "$.error"))
}

func TestTelemetryEndpoints(t *testing.T) {
	m := testManager(t)
	h := Handler(m)

	code, _ := doJSON(t, h, http.MethodGet, "/api/telemetry", "")
	assert.Equal(t, http.StatusNotFound, code)

	_, err := m.CreateRace()
	require.NoError(t, err)

	code, body := doJSON(t, h, http.MethodGet, "/api/telemetry", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, first(t, body, "$.raceId"))
	assert.Equal(t, "Clear", first(t, body, "$.weather"))

	code, body = doJSON(t, h, http.MethodGet, "/api/telemetry/leaderboard", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, jp.MustParseString("$[*].id").Get(body), 8)

	code, _ = doJSON(t, h, http.MethodGet, "/api/telemetry/events", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestInjectEvent(t *testing.T) {
	m := testManager(t)
	h := Handler(m)
	created, err := m.CreateRace()
	require.NoError(t, err)
	require.NoError(t, created.Start())

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"accident", `{"type": "accident", "carId": 1}`, http.StatusAccepted},
		{"engine failure", `{"type": "engineFailure", "carId": 2}`, http.StatusAccepted},
		{"pit stop", `{"type": "pitStop", "carId": 0}`, http.StatusAccepted},
		{"unknown type", `{"type": "ufo", "carId": 0}`, http.StatusBadRequest},
		{"unknown car", `{"type": "accident", "carId": 99}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := doJSON(t, h, http.MethodPost, "/api/event", tt.body)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestSetWeather(t *testing.T) {
	m := testManager(t)
	h := Handler(m)
	created, err := m.CreateRace()
	require.NoError(t, err)
	require.NoError(t, created.Start())

	code, _ := doJSON(t, h, http.MethodPost, "/api/weather", `{"weather": "Rain"}`)
	require.Equal(t, http.StatusAccepted, code)

	created.Tick()
	code, body := doJSON(t, h, http.MethodGet, "/api/telemetry", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Rain", first(t, body, "$.weather"))
}

func TestVersionEndpoint(t *testing.T) {
	h := Handler(testManager(t))
	code, body := doJSON(t, h, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, first(t, body, "$.version"))
}
