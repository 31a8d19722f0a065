package model

import "time"

// DbRace is the stored header of a completed race.
type DbRace struct {
	ID          string
	TrackName   string
	LapTarget   int
	SimDuration float64
	Weather     string
	Recorded    time.Time
}

// DbRaceResult is one classified car of a stored race.
type DbRaceResult struct {
	RaceID     string
	CarID      int
	Name       string
	Position   int
	Status     string
	Laps       int
	PitStops   int
	TotalTime  float64
	FinishTime float64
}

// DbRaceLap is one recorded lap time.
type DbRaceLap struct {
	RaceID  string
	CarID   int
	Lap     int
	LapTime float64
}
