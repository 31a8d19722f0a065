// Package weather fetches live conditions for syncing the simulated
// environment against the real world. On any fetch or parse failure
// the client falls back to deterministic synthetic conditions, so
// races behave the same with and without network access.
package weather

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/simulation/environment"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	fetchTimeout   = 5 * time.Second
)

type Conditions struct {
	Weather      environment.Weather
	TemperatureC float64
	HumidityPct  float64
	// Synthetic marks fallback conditions not backed by live data.
	Synthetic bool
}

type Client struct {
	baseURL string
	client  *http.Client
	log     *log.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: fetchTimeout},
		log:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns current conditions at the given coordinates. It never
// returns an error; failures degrade to synthetic conditions.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) Conditions {
	cond, err := c.fetchLive(ctx, lat, lon)
	if err != nil {
		c.log.Warn("weather fetch failed, using synthetic conditions",
			log.ErrorField(err))
		return Synthetic(lat, lon, time.Now())
	}
	return cond
}

func (c *Client) fetchLive(ctx context.Context, lat, lon float64) (Conditions, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Conditions{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Conditions{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather api status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Conditions{}, err
	}
	return parseResponse(body)
}

func parseResponse(body []byte) (Conditions, error) {
	parsed, err := oj.Parse(body)
	if err != nil {
		return Conditions{}, err
	}
	temp, ok := firstFloat(parsed, "$.current.temperature_2m")
	if !ok {
		return Conditions{}, fmt.Errorf("response has no temperature")
	}
	humidity, ok := firstFloat(parsed, "$.current.relative_humidity_2m")
	if !ok {
		return Conditions{}, fmt.Errorf("response has no humidity")
	}
	code, _ := firstFloat(parsed, "$.current.weather_code")
	return Conditions{
		Weather:      weatherFromCode(int(code)),
		TemperatureC: temp,
		HumidityPct:  humidity,
	}, nil
}

func firstFloat(parsed any, path string) (float64, bool) {
	results := jp.MustParseString(path).Get(parsed)
	if len(results) == 0 {
		return 0, false
	}
	switch v := results[0].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// WMO weather interpretation codes as used by open-meteo.
func weatherFromCode(code int) environment.Weather {
	switch {
	case code == 45 || code == 48:
		return environment.Fog
	case code >= 51 && code <= 67,
		code >= 80 && code <= 82,
		code >= 95:
		return environment.Rain
	default:
		return environment.Clear
	}
}

// Synthetic derives plausible conditions from location and date
// alone. The same inputs always yield the same output.
func Synthetic(lat, lon float64, now time.Time) Conditions {
	day := float64(now.YearDay())
	// seasonal swing, phase-shifted for the southern hemisphere
	phase := 2 * math.Pi * (day - 172) / 365.0
	if lat < 0 {
		phase += math.Pi
	}
	temp := 18.0 + 10.0*math.Cos(phase) - math.Abs(lat)*0.1
	humidity := 55.0 + 20.0*math.Sin(2*math.Pi*(day+lon)/365.0)
	w := environment.Clear
	if humidity > 70 {
		w = environment.Rain
	}
	return Conditions{
		Weather:      w,
		TemperatureC: math.Round(temp*10) / 10,
		HumidityPct:  math.Round(humidity),
		Synthetic:    true,
	}
}
