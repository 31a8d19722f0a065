// Package physics provides interchangeable executors for the per-tick
// physics update. Both executors produce bit-identical results; the
// batch variant trades per-car dispatch for slice-wise loops.
package physics

import (
	"github.com/velora-sim/velora/pkg/simulation/car"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

// Executor advances a set of cars through the two tick phases. Phase
// one (ComputeTargets) reads only frozen state; phase two (Commit)
// applies the clamped targets.
type Executor interface {
	// ComputeTargets fills targets[i] for every active car. Entries
	// of inactive cars are left untouched.
	ComputeTargets(cars []*car.Car, prof *track.Profile, envMult float64, t car.Tuning, targets []float64)
	// Commit applies targets and writes per-car step results.
	Commit(cars []*car.Car, prof *track.Profile, dt float64, t car.Tuning, targets []float64, results []car.StepResult)
}
