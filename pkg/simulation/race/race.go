// Package race wires track, environment, cars, collision handling
// and a physics executor into a deterministic simulation engine. All
// state transitions happen inside Tick or through the command
// methods, both serialized by the race mutex.
package race

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/car"
	"github.com/velora-sim/velora/pkg/simulation/collision"
	"github.com/velora-sim/velora/pkg/simulation/environment"
	"github.com/velora-sim/velora/pkg/simulation/physics"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

var (
	ErrNoCars        = errors.New("race needs at least one car")
	ErrInvalidLaps   = errors.New("lap target must be at least 1")
	ErrInvalidStep   = errors.New("time step must be positive")
	ErrCarNotFound   = errors.New("no car with that id")
	ErrAlreadyActive = errors.New("race already started")
)

type State int

const (
	NotStarted State = iota
	Running
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Finished:
		return "Finished"
	default:
		return "NotStarted"
	}
}

const (
	defaultLapTarget = 5
	defaultTimeStep  = 0.05
	defaultNumCars   = 8
	// fraction of the lap between grid slots
	gridStaggerFrac = 0.01

	engineFailureLossMin = 30.0
	engineFailureLossMax = 60.0
)

type Race struct {
	mu sync.Mutex

	id   string
	prof *track.Profile
	env  *environment.State

	tuning   car.Tuning
	resolver *collision.Resolver
	exec     physics.Executor
	log      *log.Logger

	seed    int64
	rng     *rand.Rand
	roster  []model.RosterEntry
	numCars int

	lapTarget int
	dt        float64

	cars      []*car.Car
	carParams []car.Params
	startPos  []float64

	state   State
	simTime float64
	tick    uint64
	events  []model.RaceEvent
	pending []command

	// scratch buffers reused across ticks
	targets []float64
	results []car.StepResult
	views   []collision.CarView
}

// New builds a race on the given track. The field comes from
// WithRoster when given, otherwise it is generated.
func New(prof *track.Profile, opts ...Option) (*Race, error) {
	r := &Race{
		id:        uuid.NewString(),
		prof:      prof,
		env:       environment.NewState(),
		tuning:    car.DefaultTuning(),
		resolver:  collision.NewResolver(collision.DefaultParams()),
		log:       log.Default(),
		lapTarget: defaultLapTarget,
		dt:        defaultTimeStep,
		numCars:   defaultNumCars,
		seed:      1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.lapTarget < 1 {
		return nil, ErrInvalidLaps
	}
	if r.dt <= 0 {
		return nil, ErrInvalidStep
	}
	if r.exec == nil {
		r.exec = physics.NewSequential()
	}
	r.rng = rand.New(rand.NewSource(r.seed)) //nolint:gosec // deterministic by design

	if len(r.roster) > 0 {
		r.carParams = rosterParams(r.roster, r.rng)
	} else {
		if r.numCars < 1 {
			return nil, ErrNoCars
		}
		r.carParams = generateParams(r.numCars, r.rng)
	}
	n := len(r.carParams)
	r.startPos = make([]float64, n)
	for i := range r.startPos {
		r.startPos[i] = r.prof.Wrap(-float64(i) * gridStaggerFrac * float64(r.prof.Len()))
	}
	r.buildCars()
	r.targets = make([]float64, n)
	r.results = make([]car.StepResult, n)
	r.views = make([]collision.CarView, n)
	return r, nil
}

func (r *Race) buildCars() {
	r.cars = make([]*car.Car, len(r.carParams))
	for i, p := range r.carParams {
		r.cars[i] = car.New(p, r.startPos[i])
	}
}

func (r *Race) ID() string { return r.id }

func (r *Race) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start moves the race into the running state. Cars that cannot move
// at all retire on the grid.
func (r *Race) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != NotStarted {
		return ErrAlreadyActive
	}
	active := 0
	for _, c := range r.cars {
		if c.MaxSpeedKmh <= 0 {
			c.ApplyDamage(100.0)
			r.emit(model.EventDNF, c.ID, "cannot reach racing speed")
			continue
		}
		active++
	}
	if active == 0 {
		r.state = Finished
		r.emit(model.EventRaceFinished, model.GlobalCar, "no car able to start")
		return nil
	}
	r.state = Running
	r.log.Info("race started",
		log.String("raceId", r.id),
		log.Int("cars", active),
		log.Int("laps", r.lapTarget))
	return nil
}

// Pause suspends ticking. Pausing a race that is not running is a
// no-op.
func (r *Race) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Running {
		r.state = Paused
	}
}

func (r *Race) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Paused {
		r.state = Running
	}
}

// Reset rebuilds the race to its pre-start state. The random source
// restarts at the original seed, so a reset race replays identically.
func (r *Race) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng = rand.New(rand.NewSource(r.seed)) //nolint:gosec // deterministic by design
	// skill and speed draws were consumed at construction; replay the
	// same number of draws so post-reset sequences line up
	if len(r.roster) > 0 {
		r.carParams = rosterParams(r.roster, r.rng)
	} else {
		r.carParams = generateParams(r.numCars, r.rng)
	}
	r.buildCars()
	r.state = NotStarted
	r.simTime = 0
	r.tick = 0
	r.events = nil
	r.pending = nil
}

// Tick advances the simulation by one time step. Ticks outside the
// running state do nothing.
func (r *Race) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Running {
		return
	}
	r.drainCommands()
	if r.state != Running {
		return
	}

	envMult := r.env.PerformanceMultiplier()
	r.freezeViews()
	r.exec.ComputeTargets(r.cars, r.prof, envMult, r.tuning, r.targets)
	r.resolver.ClampTargets(r.views, r.prof, r.targets)

	r.exec.Commit(r.cars, r.prof, r.dt, r.tuning, r.targets, r.results)

	// pit timers run after the commit so a car leaving the pit only
	// moves again from the next tick on
	for _, c := range r.cars {
		if c.Status == car.Pitting && c.TickPit(r.dt, r.tuning) {
			r.emit(model.EventPitComplete, c.ID, "pit stop complete")
		}
	}

	r.simTime += r.dt
	r.tick++

	for i, c := range r.cars {
		res := r.results[i]
		if res.Retired {
			r.emit(model.EventDNF, c.ID, "retired")
			continue
		}
		if !res.LapCompleted || c.Status != car.Racing {
			continue
		}
		if c.Lap >= r.lapTarget {
			c.Finish()
			r.emit(model.EventFinish, c.ID, "finished")
			continue
		}
		if c.PopScheduledPit(c.Lap+1) && c.StartPit(r.tuning) {
			r.emit(model.EventPitStop, c.ID, "scheduled pit stop")
		}
	}

	if r.activeCount() == 0 && r.state == Running {
		r.state = Finished
		r.emit(model.EventRaceFinished, model.GlobalCar, "race finished")
	}
}

func (r *Race) freezeViews() {
	for i, c := range r.cars {
		r.views[i] = collision.CarView{
			Pos:      c.Pos,
			Lap:      c.Lap,
			SpeedKmh: c.SpeedKmh,
			Active:   c.Status == car.Racing,
		}
	}
}

func (r *Race) activeCount() int {
	n := 0
	for _, c := range r.cars {
		if c.Active() {
			n++
		}
	}
	return n
}

func (r *Race) emit(kind model.EventType, carID int, msg string) {
	r.events = append(r.events, model.RaceEvent{
		Type:    kind,
		CarID:   carID,
		SimTime: r.simTime,
		Message: msg,
	})
}

// SimTime returns the simulated seconds elapsed so far.
func (r *Race) SimTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.simTime
}

// TimeStep returns the simulated seconds per tick.
func (r *Race) TimeStep() float64 { return r.dt }

// Run ticks the race to completion, bounded by maxTicks as a guard
// against configurations that never finish.
func (r *Race) Run(maxTicks uint64) {
	if err := r.Start(); err != nil && !errors.Is(err, ErrAlreadyActive) {
		return
	}
	for i := uint64(0); i < maxTicks; i++ {
		if r.State() != Running {
			return
		}
		r.Tick()
	}
	r.log.Warn("race stopped at tick limit", log.String("raceId", r.id))
}
