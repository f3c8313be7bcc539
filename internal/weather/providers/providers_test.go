package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

var berlin = weather.Location{City: "Berlin", Country: "DE", Lat: 52.52, Lon: 13.405}

func TestOpenMeteoFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "52.5200", r.URL.Query().Get("latitude"))
		assert.Contains(t, r.URL.Query().Get("current"), "wind_direction_10m")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current":{"time":"2026-01-10T12:00","temperature_2m":-5.2,"relative_humidity_2m":15,"weather_code":71,"wind_speed_10m":10,"wind_direction_10m":10,"surface_pressure":1002.4}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), weather.ConditionOvercast).WithBaseURL(srv.URL)
	r, err := p.Fetch(context.Background(), berlin)
	require.NoError(t, err)

	assert.Equal(t, "openmeteo", r.ProviderName)
	assert.Equal(t, -5.2, r.TemperatureC)
	assert.Equal(t, weather.ConditionSnowy, r.Condition)
	assert.True(t, r.HasWindDirection)
	assert.Equal(t, 1002.4, r.PressureHpa)
	assert.Equal(t, time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), r.Timestamp)
}

func TestOpenMeteoRequiresCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, weather.ConditionOvercast)
	_, err := p.Fetch(context.Background(), weather.Location{City: "Nowhere"})
	assert.Error(t, err)
}

func TestOpenMeteoUnknownCodeUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current":{"time":"2026-01-10T12:00","weather_code":95}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), weather.ConditionUnknown).WithBaseURL(srv.URL)
	r, err := p.Fetch(context.Background(), berlin)
	require.NoError(t, err)
	assert.Equal(t, weather.ConditionUnknown, r.Condition)
}

func TestResilientClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	rc := newResilientClient("test", srv.Client(), BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond})
	resp, err := rc.get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestResilientClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rc := newResilientClient("test", srv.Client(), BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond})
	_, err := rc.get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenWeatherFetchConvertsWind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dt":1767000000,"main":{"temp":20,"humidity":50,"pressure":1015},"wind":{"speed":5,"deg":270},"weather":[{"main":"Squall"}]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "key", weather.ConditionOvercast).WithBaseURL(srv.URL)
	r, err := p.Fetch(context.Background(), berlin)
	require.NoError(t, err)
	assert.InDelta(t, 18.0, r.WindSpeedKmh, 1e-9)
	assert.Equal(t, 270.0, r.WindDirectionDeg)
	assert.Equal(t, weather.ConditionWindy, r.Condition)
}

func TestWeatherAPIConditionMapping(t *testing.T) {
	fb := weather.ConditionOvercast
	assert.Equal(t, weather.ConditionRainy, mapWeatherAPICondition("Patchy light rain", fb))
	assert.Equal(t, weather.ConditionSnowy, mapWeatherAPICondition("Moderate snow", fb))
	assert.Equal(t, weather.ConditionCloudy, mapWeatherAPICondition("Partly cloudy", fb))
	assert.Equal(t, weather.ConditionSunny, mapWeatherAPICondition("Sunny", fb))
	assert.Equal(t, weather.ConditionOvercast, mapWeatherAPICondition("Mist", fb))
	assert.Equal(t, fb, mapWeatherAPICondition("", fb))
}

func TestMissingAPIKeys(t *testing.T) {
	_, err := NewOpenWeatherProvider(http.DefaultClient, "", "").Fetch(context.Background(), berlin)
	assert.Error(t, err)
	_, err = NewWeatherAPIProvider(http.DefaultClient, "", "").Fetch(context.Background(), berlin)
	assert.Error(t, err)
}
