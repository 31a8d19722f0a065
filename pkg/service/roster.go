package service

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/ohler55/ojg/oj"

	"github.com/velora-sim/velora/pkg/model"
)

var ErrEmptyRoster = errors.New("roster contains no cars")

// LoadRoster reads a roster file. Two shapes are accepted: the native
// one ({"name": ..., "maxSpeedKmh": ..., "pitLaps": [...]}) and the
// legacy driver-sheet one ({"Driver": ..., "Avg Speed in Fastest
// Lap": ..., "Lap Numbers": [...]}).
func LoadRoster(fname string) ([]model.RosterEntry, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	parsed, err := oj.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", fname, err)
	}
	list, ok := parsed.([]any)
	if !ok {
		return nil, fmt.Errorf("roster %s: expected a JSON array", fname)
	}
	if len(list) == 0 {
		return nil, ErrEmptyRoster
	}
	entries := make([]model.RosterEntry, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("roster %s: entry %d is not an object", fname, i)
		}
		entry, err := parseRosterEntry(obj)
		if err != nil {
			return nil, fmt.Errorf("roster %s: entry %d: %w", fname, i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseRosterEntry(obj map[string]any) (model.RosterEntry, error) {
	var entry model.RosterEntry
	if name, ok := obj["name"].(string); ok {
		entry.Name = name
		entry.MaxSpeedKmh = asFloat(obj["maxSpeedKmh"])
		entry.Color, _ = obj["color"].(string)
		entry.PitLaps = asIntSlice(obj["pitLaps"])
	} else if name, ok := obj["Driver"].(string); ok {
		entry.Name = name
		entry.MaxSpeedKmh = asFloat(obj["Avg Speed in Fastest Lap"])
		entry.PitLaps = asIntSlice(obj["Lap Numbers"])
	} else {
		return entry, errors.New("no name field")
	}
	if entry.Name == "" {
		return entry, errors.New("empty name")
	}
	sort.Ints(entry.PitLaps)
	return entry, nil
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asIntSlice(v any) []int {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		out = append(out, int(asFloat(item)))
	}
	return out
}
