package service

import (
	"fmt"
	"os"

	"github.com/ohler55/ojg/oj"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

// LoadTrack builds a track profile from a JSON definition file.
// Samples without an explicit speed limit get one derived from their
// curvature.
func LoadTrack(fname string, params track.ProfileParams) (*track.Profile, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var def model.TrackDef
	if err := oj.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parsing track %s: %w", fname, err)
	}
	prof, err := track.FromDef(&def, params)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", fname, err)
	}
	return prof, nil
}
