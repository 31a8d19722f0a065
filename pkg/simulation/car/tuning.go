package car

// Tuning is the full set of behavior constants for the car physics:
// corner thresholds, degradation rates, damage floors and pit timing.
// Every race carries one Tuning value; DefaultTuning provides the
// calibrated defaults.
type Tuning struct {
	// curvature below which a sample counts as straight
	StraightCurvature float64
	// curvature at which a corner reaches full severity
	CornerReference float64
	// low-pass coefficient for the target-speed filter
	SmoothingAlpha float64
	// cornering target = limit * skill * (base + span*(1-severity)) * tire
	TurnFactorBase float64
	TurnFactorSpan float64

	// tire factor = base + span * remaining/100, floored
	TireFactorBase  float64
	TireFactorSpan  float64
	TireFactorFloor float64

	// floors for the engine-power and damage multipliers
	EnginePowerFloor float64
	DamageFloor      float64
	// extra target reduction while carrying damage
	DamagedTargetFactor float64
	// damage above this counts as "carrying damage"
	DamagedThresholdPct float64

	// degradation rates (percent per second)
	TireWearRate       float64
	CornerWearGain     float64
	StraightWearFactor float64
	// fuel burn in percent per second, 0 disables the fuel model
	FuelRate float64

	// pit stop handling
	PitDurationSec     float64
	PitDamageRepairPct float64

	// a position drop beyond this many track units counts as a lap wrap
	WrapEpsilon float64
}

func DefaultTuning() Tuning {
	return Tuning{
		StraightCurvature:   0.0003,
		CornerReference:     0.0015,
		SmoothingAlpha:      0.4,
		TurnFactorBase:      0.55,
		TurnFactorSpan:      0.35,
		TireFactorBase:      0.85,
		TireFactorSpan:      0.15,
		TireFactorFloor:     0.5,
		EnginePowerFloor:    0.3,
		DamageFloor:         0.3,
		DamagedTargetFactor: 0.6,
		DamagedThresholdPct: 50.0,
		TireWearRate:        0.1,
		CornerWearGain:      1000.0,
		StraightWearFactor:  0.5,
		FuelRate:            0.05,
		PitDurationSec:      3.0,
		PitDamageRepairPct:  20.0,
		WrapEpsilon:         0.5,
	}
}
