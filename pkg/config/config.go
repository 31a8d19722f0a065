package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string  // connection string for the database (optional persistence)
	LogLevel          string  // sets the log level (zap log level values)
	LogFormat         string  // text vs json
	LogFilter         string  // zapfilter rules for named loggers
	SQLLogLevel       string  // log level for the sql query tracer
	EnableTelemetry   bool    // enable telemetry
	TelemetryEndpoint string  // endpoint for telemetry
	ProfilingPort     int     // port for profiling
	ServerAddr        string  // listen addr for the HTTP control surface
	NatsURL           string  // if set, per-tick snapshots are published to NATS
	WeatherURL        string  // weather API endpoint for live weather sync
	TrackFile         string  // path to a track definition (JSON), empty: built-in ring
	RosterFile        string  // path to a car roster (JSON), empty: generated roster
	ExportDir         string  // directory for CSV/JSON exports
	ExportFormat      string  // csv or json
	Laps              int     // race lap target
	NumCars           int     // number of cars when the roster is generated
	Seed              int64   // seed for the race-owned random generator
	TimeStep          float64 // simulation step size in seconds
	SpeedFactor       float64 // wall-clock pacing factor for the live server (1 = real time)
)
