// Package environment models the global track conditions. All cars
// read the same state each tick; it changes only through explicit
// weather commands.
package environment

type Weather int

const (
	Clear Weather = iota
	Rain
	Fog
)

func (w Weather) String() string {
	switch w {
	case Rain:
		return "Rain"
	case Fog:
		return "Fog"
	default:
		return "Clear"
	}
}

// ParseWeather maps the wire representation back to a Weather value.
// Unknown values fall back to Clear.
func ParseWeather(s string) Weather {
	switch s {
	case "Rain":
		return Rain
	case "Fog":
		return Fog
	default:
		return Clear
	}
}

// nominal reference conditions
const (
	nominalTemperatureC = 25.0
	nominalHumidityPct  = 50.0
	nominalAirDensity   = 1.225
)

type State struct {
	Weather      Weather
	TemperatureC float64
	HumidityPct  float64
	AirDensity   float64
	TrackGrip    float64
}

// NewState returns nominal clear-weather conditions.
func NewState() *State {
	return &State{
		Weather:      Clear,
		TemperatureC: nominalTemperatureC,
		HumidityPct:  nominalHumidityPct,
		AirDensity:   nominalAirDensity,
		TrackGrip:    1.0,
	}
}

// SetWeather switches the weather type and adjusts grip and humidity
// accordingly.
func (s *State) SetWeather(w Weather) {
	s.Weather = w
	switch w {
	case Rain:
		s.TrackGrip = 0.6
		s.HumidityPct = 85.0
	case Fog:
		s.TrackGrip = 0.85
		s.HumidityPct = 95.0
	default:
		s.TrackGrip = 1.0
		s.HumidityPct = nominalHumidityPct
	}
}

// Apply overrides temperature and humidity, e.g. from a live weather
// sync, keeping the grip of the current weather type.
func (s *State) Apply(temperatureC, humidityPct float64) {
	s.TemperatureC = temperatureC
	s.HumidityPct = humidityPct
}

// PerformanceMultiplier combines temperature, humidity, air density
// and grip into a single factor applied to every car's target speed.
// All factors are linear around the nominal conditions.
func (s *State) PerformanceMultiplier() float64 {
	tempFactor := 1.0 - abs(s.TemperatureC-nominalTemperatureC)*0.002
	humidityFactor := 1.0 - (s.HumidityPct-nominalHumidityPct)*0.001
	densityFactor := s.AirDensity / nominalAirDensity
	return tempFactor * humidityFactor * densityFactor * s.TrackGrip
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
