// Package server exposes the simulation over HTTP. The Manager owns
// at most one live race, drives it with a wall-clock ticker and fans
// snapshots out to subscribers.
package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/race"
	"github.com/velora-sim/velora/pkg/simulation/track"
	"github.com/velora-sim/velora/pkg/utils/broadcast"
	"github.com/velora-sim/velora/pkg/weather"
)

var ErrNoRace = errors.New("no race created yet")

// snapshots are published every snapshotEvery ticks to keep the
// fan-out volume independent of the time step
const snapshotEvery = 5

// bound on handing a snapshot to the fan-out goroutine; the fan-out
// itself skips slow subscribers, so a hit here means nobody is serving
// the source channel anymore
const publishTimeout = time.Second

// Publisher forwards snapshots to an external system (e.g. NATS).
type Publisher interface {
	Publish(snap *model.Snapshot) error
}

type Manager struct {
	mu      sync.Mutex
	prof    *track.Profile
	current *race.Race

	baseOpts    []race.Option
	speedFactor float64

	source      chan model.Snapshot
	broadcaster broadcast.BroadcastServer[model.Snapshot]
	publisher   Publisher
	weather     *weather.Client
	log         *log.Logger

	cancelTicker context.CancelFunc
}

type ManagerOption func(*Manager)

// WithSpeedFactor scales wall-clock time: 2.0 runs the simulation at
// twice real time.
func WithSpeedFactor(f float64) ManagerOption {
	return func(m *Manager) {
		if f > 0 {
			m.speedFactor = f
		}
	}
}

func WithRaceOptions(opts ...race.Option) ManagerOption {
	return func(m *Manager) { m.baseOpts = opts }
}

func WithPublisher(p Publisher) ManagerOption {
	return func(m *Manager) { m.publisher = p }
}

func WithWeatherClient(c *weather.Client) ManagerOption {
	return func(m *Manager) { m.weather = c }
}

func WithManagerLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

func NewManager(prof *track.Profile, opts ...ManagerOption) *Manager {
	m := &Manager{
		prof:        prof,
		speedFactor: 1.0,
		source:      make(chan model.Snapshot),
		log:         log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.broadcaster = broadcast.NewBroadcastServer("snapshots", m.source)
	return m
}

// CreateRace replaces the current race. A running race is stopped
// first.
func (m *Manager) CreateRace(opts ...race.Option) (*race.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTickerLocked()
	combined := make([]race.Option, 0, len(m.baseOpts)+len(opts))
	combined = append(combined, m.baseOpts...)
	combined = append(combined, opts...)
	r, err := race.New(m.prof, combined...)
	if err != nil {
		return nil, err
	}
	m.current = r
	m.log.Info("race created", log.String("raceId", r.ID()))
	return r, nil
}

// Race returns the current race or ErrNoRace.
func (m *Manager) Race() (*race.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoRace
	}
	return m.current, nil
}

// StartRace starts the current race and launches the tick loop.
func (m *Manager) StartRace() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoRace
	}
	if err := m.current.Start(); err != nil {
		return err
	}
	m.startTickerLocked()
	return nil
}

// ResetRace stops the tick loop and rewinds the race to its grid
// state.
func (m *Manager) ResetRace() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoRace
	}
	m.stopTickerLocked()
	m.current.Reset()
	return nil
}

// Subscribe returns a channel of race snapshots.
func (m *Manager) Subscribe() <-chan model.Snapshot {
	return m.broadcaster.Subscribe()
}

func (m *Manager) CancelSubscription(ch <-chan model.Snapshot) {
	m.broadcaster.CancelSubscription(ch)
}

// SyncWeather fetches conditions for the given location and applies
// them to the current race.
func (m *Manager) SyncWeather(ctx context.Context, lat, lon float64) (weather.Conditions, error) {
	r, err := m.Race()
	if err != nil {
		return weather.Conditions{}, err
	}
	client := m.weather
	if client == nil {
		client = weather.NewClient()
	}
	cond := client.Fetch(ctx, lat, lon)
	r.SetWeather(cond.Weather)
	r.SetConditions(cond.TemperatureC, cond.HumidityPct)
	m.log.Info("weather synced",
		log.String("weather", cond.Weather.String()),
		log.Float64("tempC", cond.TemperatureC),
		log.Float64("humidityPct", cond.HumidityPct),
		log.Bool("synthetic", cond.Synthetic))
	return cond, nil
}

// Close shuts down the tick loop and the snapshot fan-out.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopTickerLocked()
	m.mu.Unlock()
	m.broadcaster.Close()
}

func (m *Manager) startTickerLocked() {
	if m.cancelTicker != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelTicker = cancel
	r := m.current
	interval := time.Duration(r.TimeStep() / m.speedFactor * float64(time.Second))
	go m.runTicker(ctx, r, interval)
}

func (m *Manager) stopTickerLocked() {
	if m.cancelTicker != nil {
		m.cancelTicker()
		m.cancelTicker = nil
	}
}

func (m *Manager) runTicker(ctx context.Context, r *race.Race, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick()
			ticks++
			if ticks%snapshotEvery == 0 || r.State() == race.Finished {
				m.publish(r)
			}
			if r.State() == race.Finished {
				m.log.Info("race finished", log.String("raceId", r.ID()))
				return
			}
		}
	}
}

func (m *Manager) publish(r *race.Race) {
	snap := r.Snapshot()
	// the send must not silently drop terminal snapshots, so it waits
	// for the fan-out goroutine instead of falling through
	select {
	case m.source <- snap:
	case <-time.After(publishTimeout):
		m.log.Warn("snapshot not picked up", log.String("raceId", snap.RaceID))
	}
	if m.publisher != nil {
		if err := m.publisher.Publish(&snap); err != nil {
			m.log.Warn("snapshot publish failed", log.ErrorField(err))
		}
	}
}
