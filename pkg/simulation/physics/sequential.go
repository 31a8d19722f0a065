package physics

import (
	"github.com/velora-sim/velora/pkg/simulation/car"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

// Sequential updates one car at a time via the car's own methods.
type Sequential struct{}

func NewSequential() *Sequential { return &Sequential{} }

func (s *Sequential) ComputeTargets(cars []*car.Car, prof *track.Profile, envMult float64, t car.Tuning, targets []float64) {
	for i, c := range cars {
		if c.Status != car.Racing {
			continue
		}
		targets[i] = c.ComputeTarget(prof, envMult, t)
	}
}

func (s *Sequential) Commit(cars []*car.Car, prof *track.Profile, dt float64, t car.Tuning, targets []float64, results []car.StepResult) {
	for i, c := range cars {
		if c.Status != car.Racing {
			results[i] = car.StepResult{}
			continue
		}
		results[i] = c.CommitStep(targets[i], dt, prof, t)
	}
}
