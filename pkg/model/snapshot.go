package model

// Snapshot is the per-tick view of the whole race handed to
// presentation layers (HTTP, NATS, export). Cars are ordered by the
// leaderboard rules: finished cars by finish time, then active cars by
// lap/position/elapsed time, then retired cars.
type Snapshot struct {
	RaceID      string      `json:"raceId"`
	State       string      `json:"state"`
	SimTime     float64     `json:"simTime"`
	Tick        int         `json:"tick"`
	LapTarget   int         `json:"lapTarget"`
	Weather     string      `json:"weather"`
	Environment Environment `json:"environment"`
	Cars        []CarState  `json:"cars"`
	Events      []RaceEvent `json:"events"`
}

type Environment struct {
	Weather               string  `json:"weather"`
	TemperatureC          float64 `json:"temperatureC"`
	HumidityPct           float64 `json:"humidityPct"`
	AirDensity            float64 `json:"airDensity"`
	TrackGrip             float64 `json:"trackGrip"`
	PerformanceMultiplier float64 `json:"performanceMultiplier"`
}
