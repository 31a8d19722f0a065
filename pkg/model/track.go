package model

// TrackDef is the on-disk track definition. Geometry generation
// (spline fitting etc.) happens elsewhere; this is the precomputed
// per-sample output the simulation consumes. SpeedLimitKmh may be
// omitted, in which case it is derived from curvature.
type TrackDef struct {
	Name    string        `json:"name"`
	Meters  float64       `json:"meters"`
	Samples []TrackSample `json:"samples"`
}

type TrackSample struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Curvature     float64 `json:"curvature"`
	SpeedLimitKmh float64 `json:"speedLimitKmh,omitempty"`
}
