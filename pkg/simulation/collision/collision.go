// Package collision implements proximity-based target-speed clamping
// between cars on the same lap and the damage fallout of accidents.
package collision

import (
	"math/rand"
	"sort"

	"github.com/velora-sim/velora/pkg/simulation/track"
)

type Params struct {
	// distances in track samples
	SafetyDistance   float64
	CriticalDistance float64
	OuterBandFactor  float64

	CriticalClamp float64
	CloseClamp    float64
	OuterClamp    float64

	// accident blast radius as fraction of the track length
	AccidentProximityFrac float64

	VictimDamageMin   float64
	VictimDamageMax   float64
	TrailingDamageMin float64
	TrailingDamageMax float64
	LeadingDamageMin  float64
	LeadingDamageMax  float64
}

func DefaultParams() Params {
	return Params{
		SafetyDistance:        20.0,
		CriticalDistance:      10.0,
		OuterBandFactor:       1.5,
		CriticalClamp:         0.65,
		CloseClamp:            0.85,
		OuterClamp:            0.95,
		AccidentProximityFrac: 0.02,
		VictimDamageMin:       20.0,
		VictimDamageMax:       50.0,
		TrailingDamageMin:     30.0,
		TrailingDamageMax:     60.0,
		LeadingDamageMin:      10.0,
		LeadingDamageMax:      25.0,
	}
}

// CarView is the frozen per-car snapshot the resolver works on. All
// values are taken at the start of the tick so the clamp result is
// independent of the order cars are processed in.
type CarView struct {
	Pos      float64
	Lap      int
	SpeedKmh float64
	Active   bool
}

// Effect is a damage assignment produced by ResolveAccident.
type Effect struct {
	CarIdx int
	Damage float64
	// Debris for cars ahead of the victim, Collision for cars behind
	Debris bool
}

type Resolver struct {
	params Params
}

func NewResolver(p Params) *Resolver {
	return &Resolver{params: p}
}

func (r *Resolver) Params() Params { return r.params }

// ClampTargets lowers the target speed of any car that runs close
// behind another car on the same lap. Clamps are tiered by gap and
// expressed relative to the leading car's frozen speed; only the
// tightest tier applies.
func (r *Resolver) ClampTargets(views []CarView, prof *track.Profile, targets []float64) {
	outer := r.params.SafetyDistance * r.params.OuterBandFactor
	for i := range views {
		if !views[i].Active {
			continue
		}
		for j := range views {
			if i == j || !views[j].Active || views[i].Lap != views[j].Lap {
				continue
			}
			gap := prof.ForwardDistance(views[i].Pos, views[j].Pos)
			if gap <= 0 || gap > outer {
				continue
			}
			var clamp float64
			switch {
			case gap < r.params.CriticalDistance:
				clamp = r.params.CriticalClamp
			case gap < r.params.SafetyDistance:
				clamp = r.params.CloseClamp
			default:
				clamp = r.params.OuterClamp
			}
			limit := views[j].SpeedKmh * clamp
			if targets[i] > limit {
				targets[i] = limit
			}
		}
	}
}

// ResolveAccident computes damage for the victim and every active car
// on the victim's lap within the proximity band. Cars behind the
// victim take collision damage, cars ahead take debris damage. The
// victim's own damage comes first in the returned slice.
func (r *Resolver) ResolveAccident(views []CarView, prof *track.Profile, victim int, rng *rand.Rand) []Effect {
	p := r.params
	effects := []Effect{{
		CarIdx: victim,
		Damage: p.VictimDamageMin + rng.Float64()*(p.VictimDamageMax-p.VictimDamageMin),
	}}
	band := p.AccidentProximityFrac * float64(prof.Len())
	type hit struct {
		idx    int
		gap    float64
		debris bool
	}
	var hits []hit
	for i := range views {
		if i == victim || !views[i].Active || views[i].Lap != views[victim].Lap {
			continue
		}
		if prof.CircularDistance(views[i].Pos, views[victim].Pos) > band {
			continue
		}
		// positive forward distance from i to the victim means i is
		// trailing; zero or wrapped distances count as ahead
		gap := prof.ForwardDistance(views[i].Pos, views[victim].Pos)
		hits = append(hits, hit{idx: i, gap: gap, debris: gap <= 0 || gap > band})
	}
	// deterministic draw order for a given seed
	sort.Slice(hits, func(a, b int) bool { return hits[a].idx < hits[b].idx })
	for _, h := range hits {
		var dmg float64
		if h.debris {
			dmg = p.LeadingDamageMin + rng.Float64()*(p.LeadingDamageMax-p.LeadingDamageMin)
		} else {
			dmg = p.TrailingDamageMin + rng.Float64()*(p.TrailingDamageMax-p.TrailingDamageMin)
		}
		effects = append(effects, Effect{CarIdx: h.idx, Damage: dmg, Debris: h.debris})
	}
	return effects
}
