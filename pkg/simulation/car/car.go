// Package car holds the full mutable state of one simulated car and
// the behavior that advances it: target-speed computation, limited
// acceleration/braking, degradation and the status machine.
package car

import (
	"math"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

type Status int

const (
	Racing Status = iota
	Pitting
	Finished
	DidNotFinish
)

func (s Status) String() string {
	switch s {
	case Pitting:
		return "Pitting"
	case Finished:
		return "Finished"
	case DidNotFinish:
		return "DidNotFinish"
	default:
		return "Racing"
	}
}

// Terminal reports whether no further physics update applies.
func (s Status) Terminal() bool {
	return s == Finished || s == DidNotFinish
}

// Params are fixed at race setup and never change during a race.
type Params struct {
	ID    int
	Name  string
	Color string

	MaxSpeedKmh  float64
	MaxAccelKmhS float64
	MaxBrakeKmhS float64
	// driver skill in (0,1]
	Skill float64

	// laps at whose start the car pits (lightweight-roster feature)
	PitLaps []int
}

// StepResult reports what happened to a car during one committed step.
type StepResult struct {
	LapCompleted bool
	LapTime      float64
	Retired      bool
}

type Car struct {
	Params
	Status Status

	// kinematics
	Pos      float64
	PrevPos  float64
	SpeedKmh float64
	Lap      int
	// low-pass filter state for the target speed
	smoothedTarget float64

	// condition
	TireWearPct    float64
	FuelPct        float64
	DamagePct      float64
	EnginePowerPct float64

	PitStops     int
	pitRemaining float64
	nextPitIdx   int

	LapTime    float64
	TotalTime  float64
	FinishTime float64
	LapTimes   []float64
}

func New(p Params, startPos float64) *Car {
	return &Car{
		Params:         p,
		Status:         Racing,
		Pos:            startPos,
		PrevPos:        startPos,
		FuelPct:        100.0,
		EnginePowerPct: 100.0,
		FinishTime:     -1,
	}
}

// Active reports whether the car still takes part in the race.
func (c *Car) Active() bool {
	return c.Status == Racing || c.Status == Pitting
}

// ComputeTarget runs the target-speed computation for this tick and
// updates the smoothing state. It must be called exactly once per
// tick, before any collision clamp and before CommitStep.
func (c *Car) ComputeTarget(prof *track.Profile, envMult float64, t Tuning) float64 {
	sample := prof.SampleAt(c.Pos)

	tire := t.TireFactorBase + t.TireFactorSpan*(100.0-c.TireWearPct)/100.0
	if tire < t.TireFactorFloor {
		tire = t.TireFactorFloor
	}

	var raw float64
	if sample.Curvature < t.StraightCurvature {
		raw = math.Min(sample.SpeedLimitKmh*c.Skill*tire, c.MaxSpeedKmh)
	} else {
		severity := math.Min(sample.Curvature/t.CornerReference, 1.0)
		turn := t.TurnFactorBase + t.TurnFactorSpan*(1.0-severity)
		raw = sample.SpeedLimitKmh * c.Skill * turn * tire
	}

	power := math.Max(t.EnginePowerFloor, c.EnginePowerPct/100.0)
	damage := math.Max(t.DamageFloor, 1.0-c.DamagePct/100.0)
	raw *= envMult * power * damage
	if c.DamagePct >= t.DamagedThresholdPct {
		raw *= t.DamagedTargetFactor
	}

	target := t.SmoothingAlpha*raw + (1.0-t.SmoothingAlpha)*c.smoothedTarget
	c.smoothedTarget = target
	return target
}

// SmoothedTarget exposes the filter state for executors that compute
// targets outside the car.
func (c *Car) SmoothedTarget() float64 { return c.smoothedTarget }

func (c *Car) SetSmoothedTarget(v float64) { c.smoothedTarget = v }

// CommitStep applies the (possibly clamped) target: acceleration- or
// braking-limited speed update, position advance, lap detection,
// degradation and terminal checks. Collision effects on other cars
// are never applied here.
func (c *Car) CommitStep(target, dt float64, prof *track.Profile, t Tuning) StepResult {
	var res StepResult

	diff := target - c.SpeedKmh
	if diff > 0 {
		c.SpeedKmh += math.Min(diff/dt, c.MaxAccelKmhS) * dt
	} else {
		c.SpeedKmh += math.Max(diff/dt, -c.MaxBrakeKmhS) * dt
	}
	c.SpeedKmh = math.Max(0, math.Min(c.SpeedKmh, c.MaxSpeedKmh))

	// degradation is based on the sample the car was on when the
	// target was computed
	sample := prof.SampleAt(c.Pos)

	ds := c.SpeedKmh / 3.6 * dt * prof.UnitsPerMeter()
	c.PrevPos = c.Pos
	c.Pos = prof.Wrap(c.Pos + ds)

	if c.Pos < c.PrevPos-t.WrapEpsilon {
		c.Lap++
		res.LapCompleted = true
		res.LapTime = c.LapTime
		c.LapTimes = append(c.LapTimes, c.LapTime)
		c.LapTime = 0
	}
	c.LapTime += dt
	c.TotalTime += dt

	var wearRate float64
	if sample.Curvature > t.StraightCurvature {
		wearRate = t.TireWearRate * (1.0 + sample.Curvature*t.CornerWearGain)
	} else {
		wearRate = t.TireWearRate * t.StraightWearFactor
	}
	c.TireWearPct = math.Min(100.0, c.TireWearPct+wearRate*dt)
	if t.FuelRate > 0 {
		c.FuelPct = math.Max(0, c.FuelPct-t.FuelRate*dt)
		if c.FuelPct <= 0 {
			c.retire()
			res.Retired = true
		}
	}
	if c.DamagePct >= 100.0 {
		c.retire()
		res.Retired = true
	}
	return res
}

// StartPit moves the car into the pit lane. Cars that are already
// pitting or no longer racing ignore the command.
func (c *Car) StartPit(t Tuning) bool {
	if c.Status != Racing {
		return false
	}
	c.Status = Pitting
	c.PitStops++
	c.pitRemaining = t.PitDurationSec
	c.SpeedKmh = 0
	return true
}

// TickPit advances the pit timer by dt and reports whether the stop
// completed this tick. Completion resets tires and fuel and repairs a
// fixed amount of damage.
func (c *Car) TickPit(dt float64, t Tuning) bool {
	if c.Status != Pitting {
		return false
	}
	c.pitRemaining -= dt
	c.LapTime += dt
	c.TotalTime += dt
	if c.pitRemaining > 0 {
		return false
	}
	c.TireWearPct = 0
	c.FuelPct = 100.0
	c.DamagePct = math.Max(0, c.DamagePct-t.PitDamageRepairPct)
	c.Status = Racing
	return true
}

// PopScheduledPit reports whether the roster schedules a pit stop at
// the start of the given lap, consuming the entry.
func (c *Car) PopScheduledPit(lap int) bool {
	if c.nextPitIdx < len(c.PitLaps) && c.PitLaps[c.nextPitIdx] == lap {
		c.nextPitIdx++
		return true
	}
	return false
}

// ApplyDamage adds damage (clamped at 100) and reports whether the
// car retired because of it.
func (c *Car) ApplyDamage(amount float64) bool {
	c.DamagePct = math.Min(100.0, c.DamagePct+amount)
	if c.DamagePct >= 100.0 && !c.Status.Terminal() {
		c.retire()
		return true
	}
	return false
}

// ReducePower lowers the engine power, clamped at 0.
func (c *Car) ReducePower(amount float64) {
	c.EnginePowerPct = math.Max(0, c.EnginePowerPct-amount)
}

// Finish marks the car as finished; its race time is frozen.
func (c *Car) Finish() {
	c.Status = Finished
	c.FinishTime = c.TotalTime
	c.SpeedKmh = 0
}

func (c *Car) retire() {
	c.Status = DidNotFinish
	c.SpeedKmh = 0
}

// LapTimeEstimate returns the seconds needed for one full lap at the
// current speed, or +Inf when the car is standing still.
func (c *Car) LapTimeEstimate(prof *track.Profile) float64 {
	if c.SpeedKmh <= 0 {
		return math.Inf(1)
	}
	return prof.Params().TrackMeters / (c.SpeedKmh / 3.6)
}

// ToModel converts the car into its snapshot representation.
func (c *Car) ToModel() model.CarState {
	lapTimes := make([]float64, len(c.LapTimes))
	copy(lapTimes, c.LapTimes)
	return model.CarState{
		ID:             c.ID,
		Name:           c.Name,
		Color:          c.Color,
		Status:         c.Status.String(),
		Lap:            c.Lap,
		TrackPosition:  c.Pos,
		SpeedKmh:       c.SpeedKmh,
		TireWearPct:    c.TireWearPct,
		FuelPct:        c.FuelPct,
		DamagePct:      c.DamagePct,
		EnginePowerPct: c.EnginePowerPct,
		PitStops:       c.PitStops,
		LapTime:        c.LapTime,
		TotalTime:      c.TotalTime,
		FinishTime:     c.FinishTime,
		LapTimes:       lapTimes,
	}
}
