package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceMultiplier(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *State)
		want  float64
	}{
		{
			name:  "nominal conditions are neutral",
			setup: func(s *State) {},
			want:  1.0,
		},
		{
			name:  "heat slows the field",
			setup: func(s *State) { s.Apply(35.0, 50.0) },
			want:  1.0 - 10.0*0.002,
		},
		{
			name:  "cold slows the field too",
			setup: func(s *State) { s.Apply(15.0, 50.0) },
			want:  1.0 - 10.0*0.002,
		},
		{
			name:  "dry air helps",
			setup: func(s *State) { s.Apply(25.0, 30.0) },
			want:  1.0 + 20.0*0.001,
		},
		{
			name:  "rain stacks grip and humidity penalties",
			setup: func(s *State) { s.SetWeather(Rain) },
			want:  (1.0 - 35.0*0.001) * 0.6,
		},
		{
			name:  "fog",
			setup: func(s *State) { s.SetWeather(Fog) },
			want:  (1.0 - 45.0*0.001) * 0.85,
		},
		{
			name: "clear after rain restores nominal",
			setup: func(s *State) {
				s.SetWeather(Rain)
				s.SetWeather(Clear)
			},
			want: 1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			tt.setup(s)
			assert.InDelta(t, tt.want, s.PerformanceMultiplier(), 1e-12)
		})
	}
}

func TestParseWeather(t *testing.T) {
	assert.Equal(t, Rain, ParseWeather("Rain"))
	assert.Equal(t, Fog, ParseWeather("Fog"))
	assert.Equal(t, Clear, ParseWeather("Clear"))
	assert.Equal(t, Clear, ParseWeather("drizzle"))
}
