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

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	fallback weather.Condition
	http     *resilientClient
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, fallback weather.Condition) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   apiKey,
		baseURL:  "https://api.openweathermap.org/data/2.5/weather",
		fallback: fallback,
		http:     newResilientClient("openweather", client, DefaultBackoff),
	}
}

// WithBaseURL points the provider at a different endpoint.
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = u
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if loc.Lat != 0 || loc.Lon != 0 {
		values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
	} else {
		q := loc.City
		if loc.Country != "" {
			q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
		}
		values.Set("q", q)
	}

	resp, err := p.http.get(ctx, p.baseURL+"?"+values.Encode())
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Wind *struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	reading := weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		PressureHpa:  payload.Main.Pressure,
		Condition:    p.mapCondition(payload.Weather),
	}
	if payload.Wind != nil {
		// Metric units report wind in m/s.
		reading.WindSpeedKmh = payload.Wind.Speed * 3.6
		reading.WindDirectionDeg = payload.Wind.Deg
		reading.HasWindDirection = true
	}
	return reading, nil
}

func (p *OpenWeatherProvider) mapCondition(items []struct {
	Main string `json:"main"`
}) weather.Condition {
	if len(items) == 0 {
		return p.fallback
	}
	switch items[0].Main {
	case "Clear":
		return weather.ConditionSunny
	case "Clouds":
		return weather.ConditionCloudy
	case "Mist", "Fog", "Haze", "Smoke":
		return weather.ConditionOvercast
	case "Rain", "Drizzle", "Thunderstorm":
		return weather.ConditionRainy
	case "Snow":
		return weather.ConditionSnowy
	case "Squall", "Tornado":
		return weather.ConditionWindy
	default:
		return p.fallback
	}
}
