package weather

import (
	"context"
	"time"
)

// ProviderReading represents a single provider's normalized reading
// that can be aggregated into a WeatherSnapshot.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC     float64
	HumidityPct      float64
	WindSpeedKmh     float64
	WindDirectionDeg float64
	HasWindDirection bool
	PressureHpa      float64
	Condition        Condition
}

// Provider abstracts a weather data source (e.g. Open-Meteo, OpenWeatherMap, WeatherAPI).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(loc Location, snapshot WeatherSnapshot)
	GetLatest(loc Location) (WeatherSnapshot, error)
	GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error)
}
