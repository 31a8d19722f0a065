package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/velora-sim/velora/pkg/simulation/environment"
)

func TestFetchLive(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    Conditions
		wantErr bool
	}{
		{
			name:   "clear sky",
			body:   `{"current": {"temperature_2m": 21.5, "relative_humidity_2m": 40, "weather_code": 1}}`,
			status: http.StatusOK,
			want:   Conditions{Weather: environment.Clear, TemperatureC: 21.5, HumidityPct: 40},
		},
		{
			name:   "rain code",
			body:   `{"current": {"temperature_2m": 14.0, "relative_humidity_2m": 90, "weather_code": 61}}`,
			status: http.StatusOK,
			want:   Conditions{Weather: environment.Rain, TemperatureC: 14.0, HumidityPct: 90},
		},
		{
			name:   "fog code",
			body:   `{"current": {"temperature_2m": 8.0, "relative_humidity_2m": 98, "weather_code": 45}}`,
			status: http.StatusOK,
			want:   Conditions{Weather: environment.Fog, TemperatureC: 8.0, HumidityPct: 98},
		},
		{
			name:    "server error",
			body:    `{}`,
			status:  http.StatusBadGateway,
			wantErr: true,
		},
		{
			name:    "missing fields",
			body:    `{"current": {}}`,
			status:  http.StatusOK,
			wantErr: true,
		},
		{
			name:    "broken json",
			body:    `{"current`,
			status:  http.StatusOK,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					assert.NotEmpty(t, r.URL.Query().Get("latitude"))
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				}))
			defer srv.Close()

			c := NewClient(WithBaseURL(srv.URL))
			got, err := c.fetchLive(context.Background(), 52.5, 13.4)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	got := c.Fetch(context.Background(), 52.5, 13.4)
	assert.True(t, got.Synthetic)
}

func TestSyntheticDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	a := Synthetic(52.5, 13.4, now)
	b := Synthetic(52.5, 13.4, now)
	assert.Equal(t, a, b)
	assert.True(t, a.Synthetic)
	// plausible ranges
	assert.Greater(t, a.TemperatureC, -30.0)
	assert.Less(t, a.TemperatureC, 45.0)
	assert.GreaterOrEqual(t, a.HumidityPct, 0.0)
	assert.LessOrEqual(t, a.HumidityPct, 100.0)
}
