package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

// Synthesis backends selectable with SYNTH_BACKEND.
const (
	BackendLog  = "log"
	BackendBeep = "beep"
	BackendMIDI = "midi"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// FetchInterval controls how often tracked and playing locations are refreshed.
	FetchInterval time.Duration
	HTTPTimeout   time.Duration

	// Locations refreshed in the background besides the one being played.
	Locations []weather.Location
	// LocationsFile is an optional YAML preset catalog.
	LocationsFile string

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// FallbackCondition is used for weather codes without a mapping.
	FallbackCondition weather.Condition

	SynthBackend string
	MIDIPort     string
	SampleRate   int

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	// Scheduler interval: default 15 minutes.
	interval, err := getenvDuration("FETCH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.FetchInterval = interval

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals

	maxAge, err := getenvDuration("STORE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}
	cfg.StoreMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := loadTrackedLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs
	cfg.LocationsFile = os.Getenv("LOCATIONS_FILE")

	fallback, ok := weather.ParseCondition(getenvDefault("FALLBACK_CONDITION", string(weather.ConditionOvercast)))
	if !ok {
		return nil, fmt.Errorf("invalid FALLBACK_CONDITION %q", os.Getenv("FALLBACK_CONDITION"))
	}
	cfg.FallbackCondition = fallback

	cfg.SynthBackend = strings.ToLower(getenvDefault("SYNTH_BACKEND", BackendLog))
	switch cfg.SynthBackend {
	case BackendLog, BackendBeep, BackendMIDI:
	default:
		return nil, fmt.Errorf("invalid SYNTH_BACKEND %q (want log, beep or midi)", cfg.SynthBackend)
	}
	cfg.MIDIPort = os.Getenv("MIDI_PORT")
	if cfg.SynthBackend == BackendMIDI && cfg.MIDIPort == "" {
		return nil, fmt.Errorf("MIDI_PORT is required when SYNTH_BACKEND=midi")
	}
	cfg.SampleRate = getenvInt("SAMPLE_RATE", 48000)

	return cfg, nil
}

func loadTrackedLocations() ([]weather.Location, error) {
	city := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_CITY"))
	country := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_COUNTRY"))
	if city == "" && country == "" {
		return nil, nil
	}
	cities := strings.Split(city, ",")
	countries := strings.Split(country, ",")
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}
	var locs []weather.Location
	for i := range cities {
		locs = append(locs, weather.Location{
			City:    strings.TrimSpace(cities[i]),
			Country: strings.TrimSpace(countries[i]),
		})
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
