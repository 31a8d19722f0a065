package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ohler55/ojg/oj"

	"github.com/velora-sim/velora/pkg/model"
)

// ExportService writes race results to disk, either as a single JSON
// document or as a set of CSV files (summary, laps, events).
type ExportService struct {
	dir string
}

func InitExportService(dir string) *ExportService {
	return &ExportService{dir: dir}
}

// WriteJSON stores the complete snapshot under <dir>/<raceId>.json.
func (s *ExportService) WriteJSON(snap *model.Snapshot) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	fname := filepath.Join(s.dir, fmt.Sprintf("%s.json", snap.RaceID))
	data, err := oj.Marshal(snap, 2)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(fname, data, 0o644); err != nil {
		return "", err
	}
	return fname, nil
}

// WriteCSV stores three CSV files next to each other, prefixed with
// the race id. It returns the created file names.
func (s *ExportService) WriteCSV(snap *model.Snapshot) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	files := []struct {
		suffix string
		write  func(w *csv.Writer) error
	}{
		{"summary", func(w *csv.Writer) error { return writeSummary(w, snap) }},
		{"laps", func(w *csv.Writer) error { return writeLaps(w, snap) }},
		{"events", func(w *csv.Writer) error { return writeEvents(w, snap) }},
	}
	created := make([]string, 0, len(files))
	for _, f := range files {
		fname := filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", snap.RaceID, f.suffix))
		if err := writeCSVFile(fname, f.write); err != nil {
			return nil, err
		}
		created = append(created, fname)
	}
	return created, nil
}

func writeCSVFile(fname string, write func(w *csv.Writer) error) error {
	fh, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer fh.Close()
	w := csv.NewWriter(fh)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeSummary(w *csv.Writer, snap *model.Snapshot) error {
	header := []string{
		"position", "id", "name", "status", "laps", "pitStops",
		"totalTime", "finishTime", "tireWearPct", "fuelPct", "damagePct",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for pos, c := range snap.Cars {
		rec := []string{
			strconv.Itoa(pos + 1),
			strconv.Itoa(c.ID),
			c.Name,
			c.Status,
			strconv.Itoa(c.Lap),
			strconv.Itoa(c.PitStops),
			fmtSeconds(c.TotalTime),
			fmtSeconds(c.FinishTime),
			fmtPct(c.TireWearPct),
			fmtPct(c.FuelPct),
			fmtPct(c.DamagePct),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeLaps(w *csv.Writer, snap *model.Snapshot) error {
	if err := w.Write([]string{"id", "name", "lap", "lapTime"}); err != nil {
		return err
	}
	for _, c := range snap.Cars {
		for i, lt := range c.LapTimes {
			rec := []string{
				strconv.Itoa(c.ID),
				c.Name,
				strconv.Itoa(i + 1),
				fmtSeconds(lt),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeEvents(w *csv.Writer, snap *model.Snapshot) error {
	if err := w.Write([]string{"simTime", "type", "carId", "message"}); err != nil {
		return err
	}
	for _, e := range snap.Events {
		rec := []string{
			fmtSeconds(e.SimTime),
			string(e.Type),
			strconv.Itoa(e.CarID),
			e.Message,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func fmtSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func fmtPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
