package model

type EventType string

const (
	EventAccident      EventType = "Accident"
	EventCollision     EventType = "Collision"
	EventDebris        EventType = "Debris"
	EventEngineFailure EventType = "EngineFailure"
	EventPitStop       EventType = "PitStop"
	EventPitComplete   EventType = "PitComplete"
	EventWeather       EventType = "Weather"
	EventFinish        EventType = "Finish"
	EventDNF           EventType = "DidNotFinish"
	EventRaceFinished  EventType = "RaceFinished"
)

// GlobalCar marks events that concern the whole race rather than a single car.
const GlobalCar = -1

// RaceEvent is one entry of the append-only race log. Ordering is
// chronological (sim time, then insertion order within a tick).
type RaceEvent struct {
	Type    EventType `json:"type"`
	CarID   int       `json:"carId"`
	SimTime float64   `json:"simTime"`
	Message string    `json:"message"`
}
