package race

import (
	"sort"

	"github.com/samber/lo"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/car"
)

// Leaderboard returns car states in classification order: finishers
// by finish time, then cars still out by laps and track progress,
// then retirements.
func (r *Race) Leaderboard() []model.CarState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaderboardLocked()
}

func (r *Race) leaderboardLocked() []model.CarState {
	ordered := make([]*car.Car, len(r.cars))
	copy(ordered, r.cars)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		ra, rb := classRank(a.Status), classRank(b.Status)
		if ra != rb {
			return ra < rb
		}
		switch a.Status {
		case car.Finished:
			return a.FinishTime < b.FinishTime
		case car.DidNotFinish:
			// retirements keep the order they dropped out in
			return a.ID < b.ID
		default:
			if a.Lap != b.Lap {
				return a.Lap > b.Lap
			}
			if a.Pos != b.Pos {
				return a.Pos > b.Pos
			}
			return a.TotalTime < b.TotalTime
		}
	})
	return lo.Map(ordered, func(c *car.Car, _ int) model.CarState {
		return c.ToModel()
	})
}

func classRank(s car.Status) int {
	switch s {
	case car.Finished:
		return 0
	case car.Racing, car.Pitting:
		return 1
	default:
		return 2
	}
}

// Snapshot returns a consistent copy of the whole race state with
// cars in classification order.
func (r *Race) Snapshot() model.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]model.RaceEvent, len(r.events))
	copy(events, r.events)
	return model.Snapshot{
		RaceID:    r.id,
		State:     r.state.String(),
		SimTime:   r.simTime,
		Tick:      int(r.tick),
		LapTarget: r.lapTarget,
		Weather:   r.env.Weather.String(),
		Environment: model.Environment{
			Weather:               r.env.Weather.String(),
			TemperatureC:          r.env.TemperatureC,
			HumidityPct:           r.env.HumidityPct,
			AirDensity:            r.env.AirDensity,
			TrackGrip:             r.env.TrackGrip,
			PerformanceMultiplier: r.env.PerformanceMultiplier(),
		},
		Cars:   r.leaderboardLocked(),
		Events: events,
	}
}

// Events returns a copy of the event log.
func (r *Race) Events() []model.RaceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]model.RaceEvent, len(r.events))
	copy(events, r.events)
	return events
}
