package physics

import (
	"math"

	"github.com/velora-sim/velora/pkg/simulation/car"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

// Batch gathers car state into flat slices and computes all targets
// in one pass over them. The stateful bookkeeping of the commit phase
// (lap detection, pit and retirement handling) stays per-car.
type Batch struct {
	pos       []float64
	tireWear  []float64
	damage    []float64
	power     []float64
	skill     []float64
	maxSpeed  []float64
	smoothed  []float64
	curvature []float64
	limit     []float64
	active    []bool
}

func NewBatch() *Batch { return &Batch{} }

func (b *Batch) resize(n int) {
	if cap(b.pos) < n {
		b.pos = make([]float64, n)
		b.tireWear = make([]float64, n)
		b.damage = make([]float64, n)
		b.power = make([]float64, n)
		b.skill = make([]float64, n)
		b.maxSpeed = make([]float64, n)
		b.smoothed = make([]float64, n)
		b.curvature = make([]float64, n)
		b.limit = make([]float64, n)
		b.active = make([]bool, n)
	}
	b.pos = b.pos[:n]
	b.tireWear = b.tireWear[:n]
	b.damage = b.damage[:n]
	b.power = b.power[:n]
	b.skill = b.skill[:n]
	b.maxSpeed = b.maxSpeed[:n]
	b.smoothed = b.smoothed[:n]
	b.curvature = b.curvature[:n]
	b.limit = b.limit[:n]
	b.active = b.active[:n]
}

func (b *Batch) ComputeTargets(cars []*car.Car, prof *track.Profile, envMult float64, t car.Tuning, targets []float64) {
	n := len(cars)
	b.resize(n)
	for i, c := range cars {
		b.active[i] = c.Status == car.Racing
		if !b.active[i] {
			continue
		}
		b.pos[i] = c.Pos
		b.tireWear[i] = c.TireWearPct
		b.damage[i] = c.DamagePct
		b.power[i] = c.EnginePowerPct
		b.skill[i] = c.Skill
		b.maxSpeed[i] = c.MaxSpeedKmh
		b.smoothed[i] = c.SmoothedTarget()
		sample := prof.SampleAt(c.Pos)
		b.curvature[i] = sample.Curvature
		b.limit[i] = sample.SpeedLimitKmh
	}
	for i := 0; i < n; i++ {
		if !b.active[i] {
			continue
		}
		tire := t.TireFactorBase + t.TireFactorSpan*(100.0-b.tireWear[i])/100.0
		if tire < t.TireFactorFloor {
			tire = t.TireFactorFloor
		}
		var raw float64
		if b.curvature[i] < t.StraightCurvature {
			raw = math.Min(b.limit[i]*b.skill[i]*tire, b.maxSpeed[i])
		} else {
			severity := math.Min(b.curvature[i]/t.CornerReference, 1.0)
			turn := t.TurnFactorBase + t.TurnFactorSpan*(1.0-severity)
			raw = b.limit[i] * b.skill[i] * turn * tire
		}
		power := math.Max(t.EnginePowerFloor, b.power[i]/100.0)
		damage := math.Max(t.DamageFloor, 1.0-b.damage[i]/100.0)
		raw *= envMult * power * damage
		if b.damage[i] >= t.DamagedThresholdPct {
			raw *= t.DamagedTargetFactor
		}
		targets[i] = t.SmoothingAlpha*raw + (1.0-t.SmoothingAlpha)*b.smoothed[i]
	}
	for i, c := range cars {
		if b.active[i] {
			c.SetSmoothedTarget(targets[i])
		}
	}
}

func (b *Batch) Commit(cars []*car.Car, prof *track.Profile, dt float64, t car.Tuning, targets []float64, results []car.StepResult) {
	for i, c := range cars {
		if c.Status != car.Racing {
			results[i] = car.StepResult{}
			continue
		}
		results[i] = c.CommitStep(targets[i], dt, prof, t)
	}
}
