package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/pgx-contrib/pgxtrace"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/config"
	"github.com/velora-sim/velora/pkg/db/postgres"
	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/server"
	"github.com/velora-sim/velora/pkg/service"
	"github.com/velora-sim/velora/pkg/simulation/race"
	"github.com/velora-sim/velora/pkg/simulation/track"
	"github.com/velora-sim/velora/pkg/weather"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the live simulation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"if set, snapshots are published on this NATS server")
	cmd.Flags().StringVar(&config.WeatherURL,
		"weather-url",
		weather.DefaultBaseURL,
		"endpoint for live weather sync")
	cmd.Flags().Float64Var(&config.SpeedFactor,
		"speed-factor",
		1.0,
		"wall-clock pacing factor (2 = twice real time)")
	cmd.Flags().IntVar(&config.Laps,
		"laps",
		5,
		"default lap target for new races")
	cmd.Flags().IntVar(&config.NumCars,
		"cars",
		8,
		"default number of generated cars for new races")
	cmd.Flags().Int64Var(&config.Seed,
		"seed",
		1,
		"default seed for new races")
	cmd.Flags().Float64Var(&config.TimeStep,
		"step",
		0.05,
		"default simulation step size in seconds")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

//nolint:funlen,cyclop // by design
func startServer() error {
	var logger *log.Logger
	var sqlLogger *log.Logger
	var telemetry *config.Telemetry
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.New(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))

	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))

		sqlLogger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		logger = log.NewWithRules(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			config.LogFilter,
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}

	log.ResetDefault(logger)

	log.Debug("Config:",
		log.String("addr", config.ServerAddr),
		log.String("db", config.DB),
		log.String("nats", config.NatsURL),
		log.String("track", config.TrackFile),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewLogTracer(sqlLogger),
	}

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(context.Background()); err == nil {
			pgTracer = append(pgTracer, postgres.NewOtlpTracer())
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	prof, err := loadProfile()
	if err != nil {
		log.Fatal("could not load track", log.ErrorField(err))
	}

	managerOpts := []server.ManagerOption{
		server.WithSpeedFactor(config.SpeedFactor),
		server.WithManagerLogger(log.GetFromName("manager")),
		server.WithWeatherClient(weather.NewClient(
			weather.WithBaseURL(config.WeatherURL),
			weather.WithLogger(log.GetFromName("weather")))),
		server.WithRaceOptions(
			race.WithLapTarget(config.Laps),
			race.WithGeneratedCars(config.NumCars),
			race.WithSeed(config.Seed),
			race.WithTimeStep(config.TimeStep)),
	}
	var natsPub *server.NatsPublisher
	if config.NatsURL != "" {
		natsPub, err = server.NewNatsPublisher(config.NatsURL)
		if err != nil {
			log.Fatal("could not connect to NATS", log.ErrorField(err))
		}
		defer natsPub.Close()
		managerOpts = append(managerOpts, server.WithPublisher(natsPub))
	}

	manager := server.NewManager(prof, managerOpts...)
	defer manager.Close()

	if config.DB != "" {
		pool := postgres.InitWithUrl(config.DB, postgres.WithTracer(pgTracer))
		defer pool.Close()
		results := service.InitResultService(pool)
		go persistFinishedRaces(manager, results)
	}

	log.Info("Starting HTTP server", log.String("addr", config.ServerAddr))
	//nolint:gosec // by design
	httpServer := &http.Server{
		Addr:    config.ServerAddr,
		Handler: server.Handler(manager),
	}
	go func() {
		if srvErr := httpServer.ListenAndServe(); srvErr != nil &&
			srvErr != http.ErrServerClosed {
			log.Fatal("server could not be started", log.ErrorField(srvErr))
		}
	}()
	log.Info("Server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	v := <-sigChan
	log.Debug("Got signal ", log.Any("signal", v))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("could not shutdown http server", log.ErrorField(err))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}

	log.Info("Server terminated")
	return nil
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

// persistFinishedRaces watches the snapshot stream and stores every
// finished race. Duplicate saves for the same race id are rejected by
// the database.
func persistFinishedRaces(manager *server.Manager, results *service.ResultService) {
	ch := manager.Subscribe()
	defer manager.CancelSubscription(ch)
	for snap := range ch {
		if snap.State != race.Finished.String() {
			continue
		}
		saveRace(results, snap)
	}
}

func saveRace(results *service.ResultService, snap model.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := results.SaveRace(ctx, trackName(), &snap); err != nil {
		log.Warn("could not persist race",
			log.String("raceId", snap.RaceID),
			log.ErrorField(err))
		return
	}
	log.Info("race persisted", log.String("raceId", snap.RaceID))
}
