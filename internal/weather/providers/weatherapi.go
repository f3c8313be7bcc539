package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/weather-in-sound/internal/common"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name     string
	apiKey   string
	baseURL  string
	fallback weather.Condition
	http     *resilientClient
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, fallback weather.Condition) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:     "weatherapi",
		apiKey:   apiKey,
		baseURL:  "https://api.weatherapi.com/v1/current.json",
		fallback: fallback,
		http:     newResilientClient("weatherapi", client, DefaultBackoff),
	}
}

// WithBaseURL points the provider at a different endpoint.
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = u
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
	if loc.Lat != 0 || loc.Lon != 0 {
		values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
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
		Current struct {
			LastUpdatedEpoch int64   `json:"last_updated_epoch"`
			TempC            float64 `json:"temp_c"`
			Humidity         float64 `json:"humidity"`
			WindKph          float64 `json:"wind_kph"`
			WindDegree       float64 `json:"wind_degree"`
			PressureMb       float64 `json:"pressure_mb"`
			Condition        struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	if payload.Current.LastUpdatedEpoch == 0 {
		ts = time.Now().UTC()
	}

	return weather.ProviderReading{
		ProviderName:     p.name,
		Timestamp:        ts,
		TemperatureC:     payload.Current.TempC,
		HumidityPct:      payload.Current.Humidity,
		WindSpeedKmh:     payload.Current.WindKph,
		WindDirectionDeg: payload.Current.WindDegree,
		HasWindDirection: true,
		PressureHpa:      payload.Current.PressureMb,
		Condition:        mapWeatherAPICondition(payload.Current.Condition.Text, p.fallback),
	}, nil
}

func mapWeatherAPICondition(text string, fallback weather.Condition) weather.Condition {
	switch {
	case text == "":
		return fallback
	case common.HasAny(text, "snow", "sleet", "blizzard", "ice"):
		return weather.ConditionSnowy
	case common.HasAny(text, "rain", "shower", "drizzle", "thunder"):
		return weather.ConditionRainy
	case common.HasAny(text, "wind", "gale"):
		return weather.ConditionWindy
	case common.HasAny(text, "overcast", "mist", "fog"):
		return weather.ConditionOvercast
	case common.HasAny(text, "cloud"):
		return weather.ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionSunny
	default:
		return fallback
	}
}
