// Package voice implements the three musical layers of the soundscape.
// Each voice owns its instrument chain and schedules itself on the shared
// transport.
package voice

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/i474232898/weather-in-sound/internal/weather"
)

// Kind names a voice.
type Kind string

const (
	KindMelody Kind = "melody"
	KindLead   Kind = "lead"
	KindBass   Kind = "bass"
)

// Kinds lists every voice in a stable order.
var Kinds = []Kind{KindMelody, KindLead, KindBass}

// ParseKind matches s case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown voice %q", s)
}

// Voice is one layer. Start before Initialize is a logged no-op; Stop and
// Cleanup are safe at any time.
type Voice interface {
	Kind() Kind
	Initialize(ctx context.Context) error
	Start(snap weather.WeatherSnapshot, loc weather.Location)
	Stop()
	Cleanup()
}

// Rand is a goroutine-safe random source. Voices draw from it on API
// goroutines and on the transport goroutine.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand seeds a source.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a number in [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// Shuffle permutes n elements through swap.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.r.Shuffle(n, swap)
}

// locationFor prefers the explicit location and falls back to the one on
// the snapshot.
func locationFor(snap weather.WeatherSnapshot, loc weather.Location) weather.Location {
	if loc.City == "" && loc.Lat == 0 && loc.Lon == 0 {
		return snap.Location
	}
	return loc
}
