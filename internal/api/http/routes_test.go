package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-in-sound/internal/bridge"
	"github.com/i474232898/weather-in-sound/internal/engine"
	"github.com/i474232898/weather-in-sound/internal/locations"
	"github.com/i474232898/weather-in-sound/internal/store"
	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

type stubProvider struct {
	mu      sync.Mutex
	reading weather.ProviderReading
	err     error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(_ context.Context, _ weather.Location) (weather.ProviderReading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return weather.ProviderReading{}, p.err
	}
	r := p.reading
	r.Timestamp = time.Now().UTC()
	return r, nil
}

func (p *stubProvider) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

type testServer struct {
	app      *fiber.App
	provider *stubProvider
	bridge   *bridge.Bridge
	recorder *synth.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	provider := &stubProvider{reading: weather.ProviderReading{
		ProviderName:     "stub",
		TemperatureC:     12,
		HumidityPct:      80,
		WindSpeedKmh:     8,
		WindDirectionDeg: 270,
		HasWindDirection: true,
		PressureHpa:      1003,
		Condition:        weather.ConditionRainy,
	}}
	svc := weather.NewService(store.NewMemoryStore(10, time.Hour), []weather.Provider{provider})
	resolver := locations.NewResolver(locations.NewCatalog(locations.Defaults), nil)

	rec := synth.NewRecorder(false)
	b := bridge.New(func() *engine.Engine {
		return engine.New(rec, engine.WithManualClock(), engine.WithSeed(7))
	})
	t.Cleanup(b.Cleanup)

	app := fiber.New()
	RegisterRoutes(app, Deps{Service: svc, Resolver: resolver, Bridge: b})

	return &testServer{app: app, provider: provider, bridge: b, recorder: rec}
}

func (s *testServer) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestLocations(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/v1/locations", "")
	require.Equal(t, http.StatusOK, status)

	locs, ok := body["locations"].([]any)
	require.True(t, ok)
	assert.Len(t, locs, len(locations.Defaults))
}

func TestCurrentWeather(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/v1/weather/current", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/weather/current?city=Atlantis", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/weather/current?city=Tokyo", "")
	assert.Equal(t, http.StatusNotFound, status, "nothing stored yet")

	status, _ = s.do(t, http.MethodPost, "/api/v1/weather/fetch", `{"city":"Tokyo"}`)
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/weather/current?city=tokyo", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rainy", body["condition"])
	assert.EqualValues(t, 12, body["temperatureC"])
}

func TestFetchFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t)
	s.provider.fail(errors.New("upstream down"))

	status, _ := s.do(t, http.MethodPost, "/api/v1/weather/fetch", `{"city":"Berlin"}`)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestHistoryValidation(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/v1/weather/history?city=Tokyo", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/weather/history?city=Tokyo&from=yesterday&to=now", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/weather/history?city=Tokyo&from=2000&to=1000", "")
	assert.Equal(t, http.StatusBadRequest, status)

	_, _ = s.do(t, http.MethodPost, "/api/v1/weather/fetch", `{"city":"Tokyo"}`)
	from := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	to := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	status, body := s.do(t, http.MethodGet, "/api/v1/weather/history?city=Tokyo&from="+from+"&to="+to, "")
	require.Equal(t, http.StatusOK, status)
	snaps, ok := body["snapshots"].([]any)
	require.True(t, ok)
	assert.Len(t, snaps, 1)
}

func TestPlayFetchesAndStartsEngine(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/v1/audio/session", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/audio/play", `{"city":"London"}`)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["session"])
	assert.True(t, s.recorder.Resumed())

	_, loc, playing := s.bridge.NowPlaying()
	require.True(t, playing)
	assert.Equal(t, "London", loc.City)

	status, body = s.do(t, http.MethodGet, "/api/v1/audio/session", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["playing"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/audio/stop", "")
	require.Equal(t, http.StatusOK, status)
	_, _, playing = s.bridge.NowPlaying()
	assert.False(t, playing)
}

func TestPlayFallsBackToStoredSnapshot(t *testing.T) {
	s := newTestServer(t)
	s.provider.fail(errors.New("timeout"))

	status, _ := s.do(t, http.MethodPost, "/api/v1/audio/play", `{"city":"Quito"}`)
	assert.Equal(t, http.StatusBadGateway, status)

	s.provider.fail(nil)
	status, _ = s.do(t, http.MethodPost, "/api/v1/weather/fetch", `{"city":"Quito"}`)
	require.Equal(t, http.StatusOK, status)

	s.provider.fail(errors.New("timeout"))
	status, body := s.do(t, http.MethodPost, "/api/v1/audio/play", `{"city":"Quito"}`)
	require.Equal(t, http.StatusOK, status)
	snap, ok := body["snapshot"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rainy", snap["condition"])
}

func TestPlaySnapshot(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/v1/audio/snapshot",
		`{"city":"Nowhere","temperature":20,"humidity":150,"condition":"sunny"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/audio/snapshot", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/audio/snapshot",
		`{"city":"Nowhere","lat":10,"lon":20,"temperature":-5,"humidity":90,"windSpeed":4,"windDirection":90,"condition":"Snowy","airPressure":990}`)
	require.Equal(t, http.StatusOK, status)
	scale, ok := body["scale"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pentatonic scale - peaceful and floating", scale["description"])
}

func TestInstrumentToggles(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/v1/audio/instruments", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["melody"])
	assert.Equal(t, true, body["lead"])
	assert.Equal(t, true, body["bass"])

	status, _ = s.do(t, http.MethodPut, "/api/v1/audio/instruments/drums", `{"enabled":true}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPut, "/api/v1/audio/instruments/melody", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	_, err := s.bridge.Initialize(context.Background())
	require.NoError(t, err)

	status, body = s.do(t, http.MethodPut, "/api/v1/audio/instruments/melody", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["melody"])

	status, body = s.do(t, http.MethodPut, "/api/v1/audio/instruments/Bass", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["bass"])
}

func TestInitializeAndCleanup(t *testing.T) {
	s := newTestServer(t)

	status, first := s.do(t, http.MethodPost, "/api/v1/audio/initialize", "")
	require.Equal(t, http.StatusOK, status)
	status, second := s.do(t, http.MethodPost, "/api/v1/audio/initialize", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first["session"], second["session"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/audio/cleanup", "")
	require.Equal(t, http.StatusOK, status)
	_, ok := s.bridge.Session()
	assert.False(t, ok)
}

func TestMusicPreview(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/music/preview",
		`{"temperature":20,"humidity":50,"windSpeed":35,"windDirection":0,"condition":"hail"}`)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "Unknown", body["condition"])
	scale, ok := body["scale"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Major scale with added 6th - bright and optimistic", scale["description"])

	lead, ok := body["lead"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, lead["noteCount"])
	assert.EqualValues(t, 0, lead["dropChance"])

	melody, ok := body["melody"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, melody)

	bass, ok := body["bass"].(map[string]any)
	require.True(t, ok)
	triad, ok := bass["triad"].([]any)
	require.True(t, ok)
	assert.Len(t, triad, 3)
}
