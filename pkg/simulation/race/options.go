package race

import (
	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/car"
	"github.com/velora-sim/velora/pkg/simulation/collision"
	"github.com/velora-sim/velora/pkg/simulation/physics"
)

type Option func(*Race)

// WithLapTarget sets the number of laps every car has to complete.
func WithLapTarget(laps int) Option {
	return func(r *Race) { r.lapTarget = laps }
}

// WithTimeStep sets the simulated seconds per tick.
func WithTimeStep(dt float64) Option {
	return func(r *Race) { r.dt = dt }
}

// WithSeed fixes the random source. Two races built with the same
// seed and arguments produce identical trajectories.
func WithSeed(seed int64) Option {
	return func(r *Race) { r.seed = seed }
}

// WithRoster builds the field from explicit entries instead of a
// generated one.
func WithRoster(entries []model.RosterEntry) Option {
	return func(r *Race) { r.roster = entries }
}

// WithGeneratedCars sets the field size for a generated roster.
func WithGeneratedCars(n int) Option {
	return func(r *Race) { r.numCars = n }
}

func WithExecutor(exec physics.Executor) Option {
	return func(r *Race) { r.exec = exec }
}

func WithTuning(t car.Tuning) Option {
	return func(r *Race) { r.tuning = t }
}

func WithCollisionParams(p collision.Params) Option {
	return func(r *Race) { r.resolver = collision.NewResolver(p) }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Race) { r.log = l }
}
