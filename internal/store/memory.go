package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// SnapshotHistory holds a time-ordered list of weather snapshots for a location.
type SnapshotHistory struct {
	Location  weather.Location
	Snapshots []weather.WeatherSnapshot
}

// MemoryStore is a concurrency-safe in-memory implementation of a weather store.
// Snapshots feed the sound engine only; nothing is persisted.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*SnapshotHistory

	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited; the same holds for maxAge.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a new snapshot for a location and enforces retention.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.WeatherSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{Location: loc}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := sort.Search(len(history.Snapshots), func(i int) bool {
			return !history.Snapshots[i].Timestamp.Before(cutoff)
		})
		// Always keep the newest reading so the engine has something to play.
		if i >= len(history.Snapshots) {
			i = len(history.Snapshots) - 1
		}
		history.Snapshots = history.Snapshots[i:]
	}
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.WeatherSnapshot
	for _, snap := range history.Snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
