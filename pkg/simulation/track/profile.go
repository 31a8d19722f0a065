// Package track provides the immutable track profile the simulation
// runs on: a circular array of samples carrying position, curvature
// and a curvature-derived speed ceiling.
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/velora-sim/velora/pkg/model"
)

var (
	ErrTooFewSamples  = errors.New("track profile needs more samples")
	ErrInvalidSample  = errors.New("invalid track sample")
	ErrInvalidProfile = errors.New("invalid track profile")
)

// ProfileParams controls how speed limits are derived from curvature.
type ProfileParams struct {
	// below this curvature a sample counts as straight
	StraightCurvature float64
	// speed ceiling on straights (km/h)
	StraightLimitKmh float64
	// cap for curvature-derived limits (km/h)
	MaxLimitKmh float64
	// tire/surface friction coefficient
	Mu float64
	// gravitational acceleration (m/s²)
	Gravity float64
	// radius scale applied inside the cornering-speed formula
	RadiusScale float64
	// physical length of the whole loop in meters
	TrackMeters float64
	// minimum number of samples for positional granularity
	MinSamples int
}

func DefaultProfileParams() ProfileParams {
	return ProfileParams{
		StraightCurvature: 0.0003,
		StraightLimitKmh:  400.0,
		MaxLimitKmh:       700.0,
		Mu:                1.3,
		Gravity:           9.81,
		RadiusScale:       5500.0,
		TrackMeters:       5500.0,
		MinSamples:        100,
	}
}

type Sample struct {
	X             float64
	Y             float64
	Curvature     float64
	SpeedLimitKmh float64
}

// Profile is immutable after construction and safe to share between
// all cars of a race.
type Profile struct {
	samples []Sample
	params  ProfileParams
}

// New validates the given samples and builds a profile from them.
func New(samples []Sample, params ProfileParams) (*Profile, error) {
	if len(samples) < params.MinSamples {
		return nil, fmt.Errorf("%w: got %d, need %d",
			ErrTooFewSamples, len(samples), params.MinSamples)
	}
	if params.TrackMeters <= 0 {
		return nil, fmt.Errorf("%w: track length %.1f m", ErrInvalidProfile, params.TrackMeters)
	}
	for i := range samples {
		if samples[i].Curvature < 0 {
			return nil, fmt.Errorf("%w: sample %d has negative curvature", ErrInvalidSample, i)
		}
		if samples[i].SpeedLimitKmh <= 0 {
			return nil, fmt.Errorf("%w: sample %d has speed limit %.1f",
				ErrInvalidSample, i, samples[i].SpeedLimitKmh)
		}
	}
	cp := make([]Sample, len(samples))
	copy(cp, samples)
	return &Profile{samples: cp, params: params}, nil
}

// FromGeometry derives the speed limit of every sample from its
// curvature and builds the profile. Flat samples get the straight
// limit; corners get sqrt(mu*g*r*scale) converted to km/h, capped.
func FromGeometry(x, y, curvature []float64, params ProfileParams) (*Profile, error) {
	if len(x) != len(y) || len(x) != len(curvature) {
		return nil, fmt.Errorf("%w: geometry arrays differ in length (%d/%d/%d)",
			ErrInvalidProfile, len(x), len(y), len(curvature))
	}
	samples := make([]Sample, len(x))
	for i := range x {
		samples[i] = Sample{
			X:             x[i],
			Y:             y[i],
			Curvature:     curvature[i],
			SpeedLimitKmh: params.SpeedLimit(curvature[i]),
		}
	}
	return New(samples, params)
}

// FromDef builds a profile from a track definition, deriving limits
// for samples that do not carry one.
func FromDef(def *model.TrackDef, params ProfileParams) (*Profile, error) {
	if def.Meters > 0 {
		params.TrackMeters = def.Meters
	}
	samples := make([]Sample, len(def.Samples))
	for i, s := range def.Samples {
		limit := s.SpeedLimitKmh
		if limit == 0 {
			limit = params.SpeedLimit(s.Curvature)
		}
		samples[i] = Sample{X: s.X, Y: s.Y, Curvature: s.Curvature, SpeedLimitKmh: limit}
	}
	return New(samples, params)
}

// Ring builds a constant-radius demo loop with n samples. The radius
// follows from the configured track length, so the whole ring counts
// as one gentle corner.
func Ring(n int, params ProfileParams) (*Profile, error) {
	radius := params.TrackMeters / (2 * math.Pi)
	curv := 1.0 / radius
	x := make([]float64, n)
	y := make([]float64, n)
	c := make([]float64, n)
	for i := range n {
		angle := 2 * math.Pi * float64(i) / float64(n)
		x[i] = radius * math.Cos(angle)
		y[i] = radius * math.Sin(angle)
		c[i] = curv
	}
	return FromGeometry(x, y, c, params)
}

// SpeedLimit returns the curvature-derived speed ceiling in km/h.
func (p ProfileParams) SpeedLimit(curvature float64) float64 {
	if curvature < p.StraightCurvature {
		return p.StraightLimitKmh
	}
	radius := math.Max(1.0/curvature, 1e-3)
	vKmh := math.Sqrt(p.Mu*p.Gravity*radius*p.RadiusScale) * 3.6
	return math.Min(vKmh, p.MaxLimitKmh)
}

func (p *Profile) Len() int              { return len(p.samples) }
func (p *Profile) Params() ProfileParams { return p.params }

// At returns the sample at the circular integer index i.
func (p *Profile) At(i int) Sample {
	n := len(p.samples)
	i %= n
	if i < 0 {
		i += n
	}
	return p.samples[i]
}

// SampleAt returns the sample under the real-valued track position.
func (p *Profile) SampleAt(pos float64) Sample {
	return p.At(int(math.Floor(pos)))
}

// Wrap folds a real-valued position into [0, N).
func (p *Profile) Wrap(pos float64) float64 {
	n := float64(len(p.samples))
	pos = math.Mod(pos, n)
	if pos < 0 {
		pos += n
	}
	return pos
}

// ForwardDistance returns the track units from `from` to `to` when
// traveling in race direction.
func (p *Profile) ForwardDistance(from, to float64) float64 {
	n := float64(len(p.samples))
	d := math.Mod(to-from, n)
	if d < 0 {
		d += n
	}
	return d
}

// CircularDistance returns the shortest separation of two positions,
// folding distances beyond half the track length.
func (p *Profile) CircularDistance(a, b float64) float64 {
	n := float64(len(p.samples))
	d := math.Abs(a - b)
	if d > n/2 {
		d = n - d
	}
	return d
}

// UnitsPerMeter converts physical distance to track units.
func (p *Profile) UnitsPerMeter() float64 {
	return float64(len(p.samples)) / p.params.TrackMeters
}
