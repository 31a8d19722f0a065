package model

// CarState is the per-car part of a snapshot. It mirrors the full
// mutable state of a simulated car at the end of a tick.
type CarState struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Color          string  `json:"color"`
	Status         string  `json:"status"`
	Lap            int     `json:"lap"`
	TrackPosition  float64 `json:"trackPosition"`
	SpeedKmh       float64 `json:"speedKmh"`
	TireWearPct    float64 `json:"tireWearPct"`
	FuelPct        float64 `json:"fuelPct"`
	DamagePct      float64 `json:"damagePct"`
	EnginePowerPct float64 `json:"enginePowerPct"`
	PitStops       int     `json:"pitStops"`
	LapTime        float64 `json:"lapTime"`
	TotalTime      float64 `json:"totalTime"`
	// FinishTime is negative while the car has not finished.
	FinishTime float64   `json:"finishTime"`
	LapTimes   []float64 `json:"lapTimes"`
}

// RosterEntry describes one car of the starting grid as read from a
// roster file. A missing color gets one assigned from the palette;
// MaxSpeedKmh is taken as-is, and a car that cannot move retires on
// the grid.
type RosterEntry struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	MaxSpeedKmh float64 `json:"maxSpeedKmh"`
	PitLaps     []int   `json:"pitLaps"`
}
