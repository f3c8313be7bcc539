package weather

import (
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown  Condition = "unknown"
	ConditionSunny    Condition = "sunny"
	ConditionCloudy   Condition = "cloudy"
	ConditionOvercast Condition = "overcast"
	ConditionRainy    Condition = "rainy"
	ConditionSnowy    Condition = "snowy"
	ConditionWindy    Condition = "windy"
)

// Conditions lists every condition that has a musical mapping.
var Conditions = []Condition{
	ConditionSunny,
	ConditionCloudy,
	ConditionOvercast,
	ConditionRainy,
	ConditionSnowy,
	ConditionWindy,
}

// ParseCondition matches s case-insensitively against the known conditions.
// The second return value reports whether s was recognized.
func ParseCondition(s string) (Condition, bool) {
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	if c == ConditionUnknown {
		return ConditionUnknown, true
	}
	for _, known := range Conditions {
		if c == known {
			return c, true
		}
	}
	return ConditionUnknown, false
}

// Label returns the display form ("Sunny", "Overcast", ...).
func (c Condition) Label() string {
	if c == "" {
		return "Unknown"
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Location represents a logical place for which we track weather.
type Location struct {
	City    string  `json:"city" yaml:"city"`
	Country string  `json:"country" yaml:"country"`
	Lat     float64 `json:"lat" yaml:"lat"`
	Lon     float64 `json:"lon" yaml:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return strings.ToLower(l.City) + ":" + strings.ToLower(l.Country)
}

// WeatherSnapshot is one normalized weather reading at a point in time.
// Snapshots are treated as immutable once built.
type WeatherSnapshot struct {
	Location      Location      `json:"location"`
	Timestamp     time.Time     `json:"timestamp"` // always UTC
	Temperature   int           `json:"temperatureC"`
	Humidity      float64       `json:"humidityPercent"`
	WindSpeed     float64       `json:"windSpeedKmh"`
	WindDirection WindDirection `json:"windDirection"`
	Condition     Condition     `json:"condition"`
	AirPressure   float64       `json:"airPressureHpa"`

	// Providers contributing to this snapshot.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}
