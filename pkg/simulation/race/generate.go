package race

import (
	"fmt"
	"math/rand"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/car"
)

var carNames = []string{
	"Thunder", "Lightning", "Phoenix", "Dragon", "Falcon", "Viper",
	"Cobra", "Eagle", "Raptor", "Titan", "Storm", "Blaze",
}

var carColors = []string{
	"#FF4444", "#44FF44", "#4444FF", "#FFFF44", "#FF44FF", "#44FFFF",
	"#FF8844", "#88FF44", "#4488FF", "#FF4488", "#88FF88", "#8844FF",
}

const (
	defaultMaxAccelKmhS = 200.0
	defaultMaxBrakeKmhS = 400.0
	skillMin            = 0.92
	skillMax            = 0.99
	genSpeedMinKmh      = 280.0
	genSpeedMaxKmh      = 320.0
)

func generateParams(n int, rng *rand.Rand) []car.Params {
	params := make([]car.Params, n)
	for i := 0; i < n; i++ {
		name := carNames[i%len(carNames)]
		if i >= len(carNames) {
			name = fmt.Sprintf("%s %d", name, i/len(carNames)+1)
		}
		params[i] = car.Params{
			ID:           i,
			Name:         name,
			Color:        carColors[i%len(carColors)],
			MaxSpeedKmh:  genSpeedMinKmh + rng.Float64()*(genSpeedMaxKmh-genSpeedMinKmh),
			MaxAccelKmhS: defaultMaxAccelKmhS,
			MaxBrakeKmhS: defaultMaxBrakeKmhS,
			Skill:        skillMin + rng.Float64()*(skillMax-skillMin),
		}
	}
	return params
}

func rosterParams(entries []model.RosterEntry, rng *rand.Rand) []car.Params {
	params := make([]car.Params, len(entries))
	for i, e := range entries {
		color := e.Color
		if color == "" {
			color = carColors[i%len(carColors)]
		}
		params[i] = car.Params{
			ID:           i,
			Name:         e.Name,
			Color:        color,
			MaxSpeedKmh:  e.MaxSpeedKmh,
			MaxAccelKmhS: defaultMaxAccelKmhS,
			MaxBrakeKmhS: defaultMaxBrakeKmhS,
			Skill:        skillMin + rng.Float64()*(skillMax-skillMin),
			PitLaps:      e.PitLaps,
		}
	}
	return params
}
