package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

const openMeteoCurrentFields = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m,surface_pressure"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key but requires coordinates.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	fallback weather.Condition
	http     *resilientClient
}

// NewOpenMeteoProvider creates the provider. Weather codes without a
// condition mapping resolve to fallback.
func NewOpenMeteoProvider(client *http.Client, fallback weather.Condition) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		fallback: fallback,
		http:     newResilientClient("openmeteo", client, DefaultBackoff),
	}
}

// WithBaseURL points the provider at a different endpoint.
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if loc.Lat == 0 && loc.Lon == 0 {
		return weather.ProviderReading{}, fmt.Errorf("openmeteo requires latitude and longitude")
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
	values.Set("current", openMeteoCurrentFields)
	values.Set("wind_speed_unit", "kmh")

	resp, err := p.http.get(ctx, p.baseURL+"?"+values.Encode())
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current *struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			WeatherCode   int     `json:"weather_code"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection float64 `json:"wind_direction_10m"`
			Pressure      float64 `json:"surface_pressure"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}
	if payload.Current == nil {
		return weather.ProviderReading{}, fmt.Errorf("openmeteo: current weather data is not available")
	}
	cur := payload.Current

	ts, err := time.Parse("2006-01-02T15:04", cur.Time)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	return weather.ProviderReading{
		ProviderName:     p.name,
		Timestamp:        ts,
		TemperatureC:     cur.Temperature,
		HumidityPct:      cur.Humidity,
		WindSpeedKmh:     cur.WindSpeed,
		WindDirectionDeg: cur.WindDirection,
		HasWindDirection: true,
		PressureHpa:      cur.Pressure,
		Condition:        weather.ConditionFromCode(cur.WeatherCode, p.fallback),
	}, nil
}
