package race

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/car"
	"github.com/velora-sim/velora/pkg/simulation/environment"
	"github.com/velora-sim/velora/pkg/simulation/physics"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

func straightProfile(t *testing.T) *track.Profile {
	t.Helper()
	samples := make([]track.Sample, 1000)
	for i := range samples {
		samples[i].SpeedLimitKmh = 400
	}
	prof, err := track.New(samples, track.DefaultProfileParams())
	require.NoError(t, err)
	return prof
}

func hasEvent(events []model.RaceEvent, kind model.EventType, carID int) bool {
	for _, e := range events {
		if e.Type == kind && e.CarID == carID {
			return true
		}
	}
	return false
}

func TestNew_validation(t *testing.T) {
	prof := straightProfile(t)
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults are valid", opts: nil, wantErr: nil},
		{name: "zero laps", opts: []Option{WithLapTarget(0)}, wantErr: ErrInvalidLaps},
		{name: "negative step", opts: []Option{WithTimeStep(-0.1)}, wantErr: ErrInvalidStep},
		{name: "empty field", opts: []Option{WithGeneratedCars(0)}, wantErr: ErrNoCars},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(prof, tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSingleCarCompletesLaps(t *testing.T) {
	r, err := New(straightProfile(t),
		WithLapTarget(4),
		WithTimeStep(0.05),
		WithSeed(1),
		WithRoster([]model.RosterEntry{
			{Name: "Solo", MaxSpeedKmh: 300},
		}))
	require.NoError(t, err)

	r.Run(100000)

	require.Equal(t, Finished, r.State())
	snap := r.Snapshot()
	require.Len(t, snap.Cars, 1)
	solo := snap.Cars[0]
	assert.Equal(t, "Finished", solo.Status)
	assert.Equal(t, 4, solo.Lap)
	assert.Len(t, solo.LapTimes, 4)
	assert.Greater(t, solo.FinishTime, 0.0)
	assert.True(t, hasEvent(snap.Events, model.EventFinish, 0))
	assert.True(t, hasEvent(snap.Events, model.EventRaceFinished, model.GlobalCar))
}

func TestImmobileFieldNeverRaces(t *testing.T) {
	r, err := New(straightProfile(t),
		WithRoster([]model.RosterEntry{
			{Name: "Stuck A", MaxSpeedKmh: 0},
			{Name: "Stuck B", MaxSpeedKmh: 0},
		}))
	require.NoError(t, err)

	require.NoError(t, r.Start())
	assert.Equal(t, Finished, r.State())
	snap := r.Snapshot()
	assert.True(t, hasEvent(snap.Events, model.EventDNF, 0))
	assert.True(t, hasEvent(snap.Events, model.EventDNF, 1))
	assert.True(t, hasEvent(snap.Events, model.EventRaceFinished, model.GlobalCar))
}

func TestStateMachine(t *testing.T) {
	r, err := New(straightProfile(t), WithGeneratedCars(2))
	require.NoError(t, err)

	// ticks before the start do nothing
	r.Tick()
	assert.Equal(t, NotStarted, r.State())
	assert.Zero(t, r.SimTime())

	// pause/resume outside their states are silent no-ops
	r.Pause()
	r.Resume()
	assert.Equal(t, NotStarted, r.State())

	require.NoError(t, r.Start())
	assert.ErrorIs(t, r.Start(), ErrAlreadyActive)
	r.Tick()
	assert.InDelta(t, 0.05, r.SimTime(), 1e-9)

	r.Pause()
	r.Tick()
	assert.InDelta(t, 0.05, r.SimTime(), 1e-9)
	r.Resume()
	r.Tick()
	assert.InDelta(t, 0.10, r.SimTime(), 1e-9)
}

func TestDeterminism(t *testing.T) {
	run := func(exec physics.Executor) model.Snapshot {
		r, err := New(straightProfile(t),
			WithLapTarget(2),
			WithSeed(77),
			WithGeneratedCars(6),
			WithExecutor(exec))
		require.NoError(t, err)
		require.NoError(t, r.Start())
		for range 500 {
			r.Tick()
		}
		require.NoError(t, r.TriggerAccident(3))
		for range 500 {
			r.Tick()
		}
		snap := r.Snapshot()
		snap.RaceID = ""
		return snap
	}

	a := run(physics.NewSequential())
	b := run(physics.NewSequential())
	assert.Empty(t, cmp.Diff(a, b))

	c := run(physics.NewBatch())
	assert.Empty(t, cmp.Diff(a, c))
}

func TestReset(t *testing.T) {
	r, err := New(straightProfile(t), WithLapTarget(2), WithSeed(5), WithGeneratedCars(4))
	require.NoError(t, err)

	require.NoError(t, r.Start())
	for range 1000 {
		r.Tick()
	}
	before := r.Snapshot()
	require.Positive(t, before.SimTime)

	r.Reset()
	snap := r.Snapshot()
	assert.Equal(t, "NotStarted", snap.State)
	assert.Zero(t, snap.SimTime)
	assert.Empty(t, snap.Events)

	// the reset race replays the original trajectories
	require.NoError(t, r.Start())
	for range 1000 {
		r.Tick()
	}
	after := r.Snapshot()
	assert.Empty(t, cmp.Diff(before, after))
}

func TestAccidentDamagesNearbyCars(t *testing.T) {
	// two cars close together, one far away
	r, err := New(straightProfile(t),
		WithSeed(3),
		WithRoster([]model.RosterEntry{
			{Name: "Lead", MaxSpeedKmh: 300},
			{Name: "Chase", MaxSpeedKmh: 300},
			{Name: "Far", MaxSpeedKmh: 300},
		}))
	require.NoError(t, err)
	require.NoError(t, r.Start())
	// move the third car out of the accident band
	r.cars[2].Pos = 500

	require.NoError(t, r.TriggerAccident(0))
	r.Tick()

	snap := r.Snapshot()
	assert.True(t, hasEvent(snap.Events, model.EventAccident, 0))
	assert.True(t, hasEvent(snap.Events, model.EventCollision, 1))
	assert.False(t, hasEvent(snap.Events, model.EventCollision, 2))
	assert.False(t, hasEvent(snap.Events, model.EventDebris, 2))

	byID := map[int]model.CarState{}
	for _, cs := range snap.Cars {
		byID[cs.ID] = cs
	}
	assert.GreaterOrEqual(t, byID[0].DamagePct, 20.0)
	assert.GreaterOrEqual(t, byID[1].DamagePct, 30.0)
	assert.Zero(t, byID[2].DamagePct)
}

func TestAccidentUnknownCar(t *testing.T) {
	r, err := New(straightProfile(t), WithGeneratedCars(2))
	require.NoError(t, err)
	assert.ErrorIs(t, r.TriggerAccident(9), ErrCarNotFound)
	assert.ErrorIs(t, r.TriggerEngineFailure(-1), ErrCarNotFound)
	assert.ErrorIs(t, r.TriggerPitStop(2), ErrCarNotFound)
}

func TestPitStopCommand(t *testing.T) {
	r, err := New(straightProfile(t),
		WithRoster([]model.RosterEntry{{Name: "Solo", MaxSpeedKmh: 300}}))
	require.NoError(t, err)
	require.NoError(t, r.Start())
	for range 400 {
		r.Tick()
	}
	r.cars[0].TireWearPct = 70

	require.NoError(t, r.TriggerPitStop(0))
	r.Tick()
	assert.Equal(t, car.Pitting, r.cars[0].Status)
	assert.True(t, hasEvent(r.Events(), model.EventPitStop, 0))

	// pit duration 3 s at dt 0.05
	for range 61 {
		r.Tick()
	}
	assert.Equal(t, car.Racing, r.cars[0].Status)
	// at most one racing tick since the pit service ended
	assert.Less(t, r.cars[0].TireWearPct, 0.1)
	assert.InDelta(t, 100.0, r.cars[0].FuelPct, 0.1)
	assert.True(t, hasEvent(r.Events(), model.EventPitComplete, 0))
	assert.Equal(t, 1, r.cars[0].PitStops)
}

func TestScheduledPits(t *testing.T) {
	r, err := New(straightProfile(t),
		WithLapTarget(3),
		WithRoster([]model.RosterEntry{
			{Name: "Solo", MaxSpeedKmh: 300, PitLaps: []int{2}},
		}))
	require.NoError(t, err)

	r.Run(100000)
	require.Equal(t, Finished, r.State())
	snap := r.Snapshot()
	assert.Equal(t, 1, snap.Cars[0].PitStops)
	assert.True(t, hasEvent(snap.Events, model.EventPitStop, 0))
	assert.True(t, hasEvent(snap.Events, model.EventPitComplete, 0))
}

func TestEngineFailureSlowsCar(t *testing.T) {
	r, err := New(straightProfile(t),
		WithSeed(11),
		WithRoster([]model.RosterEntry{{Name: "Solo", MaxSpeedKmh: 300}}))
	require.NoError(t, err)
	require.NoError(t, r.Start())
	for range 2000 {
		r.Tick()
	}
	healthySpeed := r.cars[0].SpeedKmh

	require.NoError(t, r.TriggerEngineFailure(0))
	for range 2000 {
		r.Tick()
	}
	assert.Less(t, r.cars[0].SpeedKmh, healthySpeed)
	assert.LessOrEqual(t, r.cars[0].EnginePowerPct, 70.0)
	assert.True(t, hasEvent(r.Events(), model.EventEngineFailure, 0))
}

func TestWeatherCommand(t *testing.T) {
	r, err := New(straightProfile(t),
		WithRoster([]model.RosterEntry{{Name: "Solo", MaxSpeedKmh: 300}}))
	require.NoError(t, err)
	require.NoError(t, r.Start())
	for range 2000 {
		r.Tick()
	}
	drySpeed := r.cars[0].SpeedKmh

	r.SetWeather(environment.Rain)
	for range 2000 {
		r.Tick()
	}
	snap := r.Snapshot()
	assert.Equal(t, "Rain", snap.Weather)
	assert.Less(t, r.cars[0].SpeedKmh, drySpeed*0.7)
	assert.True(t, hasEvent(snap.Events, model.EventWeather, model.GlobalCar))
}

func TestLeaderboardOrdering(t *testing.T) {
	r, err := New(straightProfile(t),
		WithLapTarget(2),
		WithSeed(21),
		WithGeneratedCars(5))
	require.NoError(t, err)
	require.NoError(t, r.Start())

	r.cars[0].Finish()
	r.cars[1].TotalTime = 50
	r.cars[1].Finish()
	r.cars[2].Lap = 1
	r.cars[2].Pos = 400
	r.cars[3].Lap = 1
	r.cars[3].Pos = 600
	r.cars[4].ApplyDamage(100)

	board := r.Leaderboard()
	require.Len(t, board, 5)
	// finishers first, faster finish ahead
	assert.Equal(t, 0, board[0].ID)
	assert.Equal(t, 1, board[1].ID)
	// same lap, further along the track ahead
	assert.Equal(t, 3, board[2].ID)
	assert.Equal(t, 2, board[3].ID)
	// retirements last
	assert.Equal(t, 4, board[4].ID)
}

func TestGeneratedFieldBounds(t *testing.T) {
	r, err := New(straightProfile(t), WithSeed(8), WithGeneratedCars(15))
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, c := range r.cars {
		assert.GreaterOrEqual(t, c.MaxSpeedKmh, 280.0)
		assert.LessOrEqual(t, c.MaxSpeedKmh, 320.0)
		assert.GreaterOrEqual(t, c.Skill, 0.92)
		assert.LessOrEqual(t, c.Skill, 0.99)
		assert.False(t, seen[c.Name], "duplicate name %s", c.Name)
		seen[c.Name] = true
	}
}
