package race

import (
	"fmt"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/environment"
)

type commandKind int

const (
	cmdWeather commandKind = iota
	cmdAccident
	cmdEngineFailure
	cmdPitStop
	cmdConditions
)

type command struct {
	kind     commandKind
	carID    int
	weather  environment.Weather
	temp     float64
	humidity float64
}

// SetWeather queues a weather change. It takes effect at the start of
// the next tick.
func (r *Race) SetWeather(w environment.Weather) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, command{kind: cmdWeather, weather: w})
}

// SetConditions queues an explicit temperature/humidity override, as
// used when syncing against live weather data.
func (r *Race) SetConditions(tempC, humidityPct float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, command{kind: cmdConditions, temp: tempC, humidity: humidityPct})
}

// TriggerAccident queues an accident for the given car. Damage for
// the victim and nearby cars is drawn when the command is applied.
func (r *Race) TriggerAccident(carID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkCar(carID); err != nil {
		return err
	}
	r.pending = append(r.pending, command{kind: cmdAccident, carID: carID})
	return nil
}

// TriggerEngineFailure queues a partial engine failure for the car.
func (r *Race) TriggerEngineFailure(carID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkCar(carID); err != nil {
		return err
	}
	r.pending = append(r.pending, command{kind: cmdEngineFailure, carID: carID})
	return nil
}

// TriggerPitStop queues an immediate pit stop for the car.
func (r *Race) TriggerPitStop(carID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkCar(carID); err != nil {
		return err
	}
	r.pending = append(r.pending, command{kind: cmdPitStop, carID: carID})
	return nil
}

func (r *Race) checkCar(carID int) error {
	if carID < 0 || carID >= len(r.cars) {
		return fmt.Errorf("%w: %d", ErrCarNotFound, carID)
	}
	return nil
}

// drainCommands applies queued commands in arrival order. Commands
// addressed to cars that are no longer racing fall through silently.
func (r *Race) drainCommands() {
	for _, cmd := range r.pending {
		switch cmd.kind {
		case cmdWeather:
			r.env.SetWeather(cmd.weather)
			r.emit(model.EventWeather, model.GlobalCar, "weather changed to "+cmd.weather.String())
		case cmdConditions:
			r.env.Apply(cmd.temp, cmd.humidity)
			r.emit(model.EventWeather, model.GlobalCar,
				fmt.Sprintf("conditions set to %.1fC / %.0f%%", cmd.temp, cmd.humidity))
		case cmdAccident:
			r.applyAccident(cmd.carID)
		case cmdEngineFailure:
			r.applyEngineFailure(cmd.carID)
		case cmdPitStop:
			if r.cars[cmd.carID].StartPit(r.tuning) {
				r.emit(model.EventPitStop, cmd.carID, "pit stop")
			}
		}
	}
	r.pending = r.pending[:0]
}

func (r *Race) applyAccident(carID int) {
	victim := r.cars[carID]
	if !victim.Active() {
		return
	}
	r.freezeViews()
	effects := r.resolver.ResolveAccident(r.views, r.prof, carID, r.rng)
	for i, eff := range effects {
		c := r.cars[eff.CarIdx]
		retired := c.ApplyDamage(eff.Damage)
		switch {
		case i == 0:
			r.emit(model.EventAccident, c.ID, fmt.Sprintf("accident, %.0f%% damage", eff.Damage))
		case eff.Debris:
			r.emit(model.EventDebris, c.ID, fmt.Sprintf("hit debris, %.0f%% damage", eff.Damage))
		default:
			r.emit(model.EventCollision, c.ID, fmt.Sprintf("collision, %.0f%% damage", eff.Damage))
		}
		if retired {
			r.emit(model.EventDNF, c.ID, "retired after accident")
		}
	}
	r.log.Info("accident applied",
		log.String("raceId", r.id),
		log.Int("car", carID),
		log.Int("affected", len(effects)-1))
}

func (r *Race) applyEngineFailure(carID int) {
	c := r.cars[carID]
	if !c.Active() {
		return
	}
	loss := engineFailureLossMin + r.rng.Float64()*(engineFailureLossMax-engineFailureLossMin)
	c.ReducePower(loss)
	r.emit(model.EventEngineFailure, c.ID, fmt.Sprintf("engine failure, %.0f%% power lost", loss))
}
