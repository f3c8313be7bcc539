package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

type stubFetcher struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]bool
}

func (f *stubFetcher) FetchAndStore(_ context.Context, loc weather.Location) (weather.WeatherSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, loc.Key())
	if f.fail[loc.Key()] {
		return weather.WeatherSnapshot{}, errors.New("provider down")
	}
	return weather.WeatherSnapshot{Location: loc, Condition: weather.ConditionRainy}, nil
}

func (f *stubFetcher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

type stubPlayer struct {
	mu        sync.Mutex
	playing   bool
	loc       weather.Location
	refreshed []weather.WeatherSnapshot
}

func (p *stubPlayer) NowPlaying() (weather.WeatherSnapshot, weather.Location, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return weather.WeatherSnapshot{}, p.loc, p.playing
}

func (p *stubPlayer) Refresh(snap weather.WeatherSnapshot, _ weather.Location) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshed = append(p.refreshed, snap)
	return true
}

var (
	london = weather.Location{City: "London", Country: "UK"}
	tokyo  = weather.Location{City: "Tokyo", Country: "Japan"}
)

func TestRunOnceFetchesTrackedLocations(t *testing.T) {
	f := &stubFetcher{}
	p := &stubPlayer{}
	s := New(func() []weather.Location { return []weather.Location{london, tokyo} }, time.Minute, f, p)

	s.RunOnce(context.Background())
	assert.ElementsMatch(t, []string{london.Key(), tokyo.Key()}, f.keys())
	assert.Empty(t, p.refreshed)
}

func TestRunOnceRefreshesPlayingLocation(t *testing.T) {
	f := &stubFetcher{}
	quito := weather.Location{City: "Quito", Country: "Ecuador"}
	p := &stubPlayer{playing: true, loc: quito}
	s := New(func() []weather.Location { return []weather.Location{london} }, 0, f, p)
	assert.Equal(t, DefaultInterval, s.interval)

	s.RunOnce(context.Background())
	assert.ElementsMatch(t, []string{london.Key(), quito.Key()}, f.keys())
	if assert.Len(t, p.refreshed, 1) {
		assert.Equal(t, quito, p.refreshed[0].Location)
	}
}

func TestRunOnceSkipsRefreshOnFetchError(t *testing.T) {
	f := &stubFetcher{fail: map[string]bool{london.Key(): true}}
	p := &stubPlayer{playing: true, loc: london}
	s := New(nil, time.Minute, f, p)

	s.RunOnce(context.Background())
	assert.Equal(t, []string{london.Key()}, f.keys())
	assert.Empty(t, p.refreshed)
}

func TestStartRunsJob(t *testing.T) {
	f := &stubFetcher{}
	s := New(func() []weather.Location { return []weather.Location{tokyo} }, time.Hour, f, &stubPlayer{})
	assert.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return len(f.keys()) > 0 }, 2*time.Second, 10*time.Millisecond)
}
