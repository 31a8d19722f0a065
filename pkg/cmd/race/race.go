package race

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/config"
	"github.com/velora-sim/velora/pkg/db/postgres"
	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/service"
	"github.com/velora-sim/velora/pkg/simulation/physics"
	"github.com/velora-sim/velora/pkg/simulation/race"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

var (
	executorName string
	maxTicks     uint64
)

//nolint:funlen // by design
func NewRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "runs a complete race without pacing and exports the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRace()
		},
	}
	cmd.Flags().IntVar(&config.Laps,
		"laps",
		5,
		"race lap target")
	cmd.Flags().IntVar(&config.NumCars,
		"cars",
		8,
		"number of generated cars (ignored when a roster is given)")
	cmd.Flags().Int64Var(&config.Seed,
		"seed",
		1,
		"seed for the race random generator")
	cmd.Flags().Float64Var(&config.TimeStep,
		"step",
		0.05,
		"simulation step size in seconds")
	cmd.Flags().StringVar(&config.RosterFile,
		"roster",
		"",
		"car roster file (JSON)")
	cmd.Flags().StringVar(&config.ExportDir,
		"export-dir",
		".",
		"directory for result exports")
	cmd.Flags().StringVar(&config.ExportFormat,
		"export-format",
		"csv",
		"export format (csv, json)")
	cmd.Flags().StringVar(&executorName,
		"executor",
		"sequential",
		"physics executor (sequential, batch)")
	cmd.Flags().Uint64Var(&maxTicks,
		"max-ticks",
		10_000_000,
		"safety limit for simulation steps")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func loadProfile() (*track.Profile, error) {
	if config.TrackFile != "" {
		return service.LoadTrack(config.TrackFile, track.DefaultProfileParams())
	}
	return track.Ring(200, track.DefaultProfileParams())
}

func trackName() string {
	if config.TrackFile == "" {
		return "ring"
	}
	base := filepath.Base(config.TrackFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

//nolint:funlen,cyclop // by design
func runRace() error {
	logger := log.DevLogger(
		os.Stderr,
		parseLogLevel(config.LogLevel, log.InfoLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	prof, err := loadProfile()
	if err != nil {
		log.Fatal("could not load track", log.ErrorField(err))
	}

	opts := []race.Option{
		race.WithLapTarget(config.Laps),
		race.WithSeed(config.Seed),
		race.WithTimeStep(config.TimeStep),
		race.WithLogger(log.GetFromName("race")),
	}
	if config.RosterFile != "" {
		var roster []model.RosterEntry
		if roster, err = service.LoadRoster(config.RosterFile); err != nil {
			log.Fatal("could not load roster", log.ErrorField(err))
		}
		opts = append(opts, race.WithRoster(roster))
	} else {
		opts = append(opts, race.WithGeneratedCars(config.NumCars))
	}
	switch executorName {
	case "batch":
		opts = append(opts, race.WithExecutor(physics.NewBatch()))
	case "sequential":
		// default executor
	default:
		return fmt.Errorf("unknown executor: %s", executorName)
	}

	r, err := race.New(prof, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	r.Run(maxTicks)
	if r.State() != race.Finished {
		return fmt.Errorf("race did not finish within %d ticks", maxTicks)
	}
	snap := r.Snapshot()
	log.Info("race finished",
		log.Float64("simTime", snap.SimTime),
		log.String("wallTime", time.Since(start).String()))

	printLeaderboard(&snap)

	if err := exportRace(&snap); err != nil {
		return err
	}

	if config.DB != "" {
		if err := persistRace(&snap); err != nil {
			return err
		}
	}
	return nil
}

func printLeaderboard(snap *model.Snapshot) {
	fmt.Printf("%-4s %-20s %-10s %5s %9s %12s\n",
		"Pos", "Name", "Status", "Laps", "Pits", "Total")
	for i, c := range snap.Cars {
		total := "-"
		if c.Status != "DidNotFinish" {
			total = fmt.Sprintf("%.3fs", c.TotalTime)
		}
		fmt.Printf("%-4d %-20s %-10s %5d %9d %12s\n",
			i+1, c.Name, c.Status, c.Lap, c.PitStops, total)
	}
}

func exportRace(snap *model.Snapshot) error {
	exporter := service.InitExportService(config.ExportDir)
	switch config.ExportFormat {
	case "json":
		fname, err := exporter.WriteJSON(snap)
		if err != nil {
			return err
		}
		log.Info("results written", log.String("file", fname))
	case "csv":
		files, err := exporter.WriteCSV(snap)
		if err != nil {
			return err
		}
		for _, fname := range files {
			log.Info("results written", log.String("file", fname))
		}
	default:
		return fmt.Errorf("unknown export format: %s", config.ExportFormat)
	}
	return nil
}

func persistRace(snap *model.Snapshot) error {
	pool := postgres.InitWithUrl(config.DB)
	defer pool.Close()
	results := service.InitResultService(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := results.SaveRace(ctx, trackName(), snap); err != nil {
		return err
	}
	log.Info("race persisted", log.String("raceId", snap.RaceID))
	return nil
}
