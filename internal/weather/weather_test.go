package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	c, ok := ParseCondition("SNOWY")
	assert.True(t, ok)
	assert.Equal(t, ConditionSnowy, c)

	c, ok = ParseCondition(" Rainy ")
	assert.True(t, ok)
	assert.Equal(t, ConditionRainy, c)

	c, ok = ParseCondition("BOGUS")
	assert.False(t, ok)
	assert.Equal(t, ConditionUnknown, c)

	assert.Equal(t, "Overcast", ConditionOvercast.Label())
	assert.Equal(t, "Unknown", Condition("").Label())
}

func TestConditionFromCode(t *testing.T) {
	assert.Equal(t, ConditionSunny, ConditionFromCode(0, ConditionOvercast))
	assert.Equal(t, ConditionCloudy, ConditionFromCode(1, ConditionOvercast))
	assert.Equal(t, ConditionCloudy, ConditionFromCode(2, ConditionOvercast))
	assert.Equal(t, ConditionOvercast, ConditionFromCode(3, ConditionUnknown))
	assert.Equal(t, ConditionRainy, ConditionFromCode(61, ConditionOvercast))
	assert.Equal(t, ConditionRainy, ConditionFromCode(63, ConditionOvercast))
	assert.Equal(t, ConditionSnowy, ConditionFromCode(71, ConditionOvercast))
	assert.Equal(t, ConditionWindy, ConditionFromCode(80, ConditionOvercast))

	// Unmapped codes follow the configured fallback.
	assert.Equal(t, ConditionOvercast, ConditionFromCode(95, ConditionOvercast))
	assert.Equal(t, ConditionUnknown, ConditionFromCode(95, ConditionUnknown))
	assert.Equal(t, ConditionOvercast, ConditionFromCode(95, ""))
}

func TestAggregateReadings(t *testing.T) {
	loc := Location{City: "Berlin", Country: "DE", Lat: 52.52, Lon: 13.405}
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Minute)

	snap := AggregateReadings(loc, []ProviderReading{
		{ProviderName: "a", Timestamp: t1, TemperatureC: -4.6, HumidityPct: 80, WindSpeedKmh: 10, WindDirectionDeg: 350, HasWindDirection: true, PressureHpa: 1000, Condition: ConditionSnowy},
		{ProviderName: "b", Timestamp: t2, TemperatureC: -5.4, HumidityPct: 90, WindSpeedKmh: 20, WindDirectionDeg: 10, HasWindDirection: true, Condition: ConditionSnowy},
		{ProviderName: "c", Timestamp: t1, TemperatureC: -5, HumidityPct: 85, WindSpeedKmh: 15, PressureHpa: 1010, Condition: ConditionCloudy},
	})

	assert.Equal(t, -5, snap.Temperature)
	assert.Equal(t, 85.0, snap.Humidity)
	assert.Equal(t, 15.0, snap.WindSpeed)
	assert.Equal(t, 1005.0, snap.AirPressure)
	assert.Equal(t, ConditionSnowy, snap.Condition)
	assert.Equal(t, "North", snap.WindDirection.Label)
	assert.Equal(t, t2, snap.Timestamp)
	assert.Len(t, snap.Providers, 3)
}

func TestAggregateReadingsEmpty(t *testing.T) {
	snap := AggregateReadings(Location{City: "Quito"}, nil)
	assert.Equal(t, ConditionUnknown, snap.Condition)
	assert.False(t, snap.Timestamp.IsZero())
}

type stubProvider struct {
	name    string
	reading ProviderReading
	err     error
}

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Fetch(ctx context.Context, loc Location) (ProviderReading, error) {
	return p.reading, p.err
}

type stubStore struct {
	mu    sync.Mutex
	saved []WeatherSnapshot
}

func (s *stubStore) SaveSnapshot(loc Location, snap WeatherSnapshot) {
	s.mu.Lock()
	s.saved = append(s.saved, snap)
	s.mu.Unlock()
}

func (s *stubStore) GetLatest(loc Location) (WeatherSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return WeatherSnapshot{}, errors.New("empty")
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *stubStore) GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error) {
	return nil, nil
}

func TestServiceFetchAndStore(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, []Provider{
		stubProvider{name: "ok", reading: ProviderReading{ProviderName: "ok", TemperatureC: 21, HumidityPct: 40, Condition: ConditionSunny}},
		stubProvider{name: "broken", err: errors.New("boom")},
	})

	snap, err := svc.FetchAndStore(context.Background(), Location{City: "Tokyo", Country: "JP"})
	require.NoError(t, err)
	assert.Equal(t, 21, snap.Temperature)
	assert.Equal(t, ConditionSunny, snap.Condition)

	latest, err := svc.GetLatest(Location{City: "Tokyo", Country: "JP"})
	require.NoError(t, err)
	assert.Equal(t, snap.Temperature, latest.Temperature)
}

func TestServiceFetchAndStoreFailures(t *testing.T) {
	_, err := NewService(&stubStore{}, nil).FetchAndStore(context.Background(), Location{})
	assert.ErrorIs(t, err, ErrNoProviders)

	store := &stubStore{}
	svc := NewService(store, []Provider{stubProvider{name: "broken", err: errors.New("boom")}})
	_, err = svc.FetchAndStore(context.Background(), Location{})
	assert.ErrorIs(t, err, ErrNoReadings)
	assert.Empty(t, store.saved)
}
