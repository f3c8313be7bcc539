// Package bridge is the process-scoped owner of the audio engine. The API
// layer talks to the engine only through a Bridge.
package bridge

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/weather-in-sound/internal/engine"
	"github.com/i474232898/weather-in-sound/internal/voice"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// Factory builds a fresh engine.
type Factory func() *engine.Engine

// Bridge lazily creates one engine and tears it down on Cleanup.
type Bridge struct {
	factory Factory

	mu     sync.Mutex
	engine *engine.Engine
}

// New creates a bridge without an engine.
func New(factory Factory) *Bridge {
	return &Bridge{factory: factory}
}

// Initialize creates and initializes the engine once. Later calls return
// the existing engine. A failed attempt leaves no engine behind.
func (b *Bridge) Initialize(ctx context.Context) (*engine.Engine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initializeLocked(ctx)
}

func (b *Bridge) initializeLocked(ctx context.Context) (*engine.Engine, error) {
	if b.engine != nil {
		return b.engine, nil
	}
	e := b.factory()
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}
	b.engine = e
	log.Printf("INFO: bridge: engine %s ready", e.ID)
	return e, nil
}

// Play initializes the engine if needed and plays snap.
func (b *Bridge) Play(ctx context.Context, snap weather.WeatherSnapshot, loc weather.Location) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.initializeLocked(ctx)
	if err != nil {
		return fmt.Errorf("bridge: play: %w", err)
	}
	return e.PlayWeatherMelody(snap, loc)
}

// Refresh swaps in a newer snapshot for loc while the engine is playing
// that location. It never creates or initializes an engine, so background
// jobs cannot start audio on their own.
func (b *Bridge) Refresh(snap weather.WeatherSnapshot, loc weather.Location) bool {
	e := b.current()
	if e == nil || !e.Playing() {
		return false
	}
	if _, current, ok := e.Last(); !ok || current.Key() != loc.Key() {
		return false
	}
	return e.PlayWeatherMelody(snap, loc) == nil
}

// Stop silences every voice. No-op without an engine.
func (b *Bridge) Stop() {
	if e := b.current(); e != nil {
		e.StopMelody()
	}
}

// Cleanup tears the engine down; the next call needs a fresh Initialize.
func (b *Bridge) Cleanup() {
	b.mu.Lock()
	e := b.engine
	b.engine = nil
	b.mu.Unlock()
	if e != nil {
		e.Cleanup()
	}
}

// Toggle flips one voice. No-op without an engine.
func (b *Bridge) Toggle(k voice.Kind, enabled bool) {
	if e := b.current(); e != nil {
		e.Toggle(k, enabled)
	}
}

func (b *Bridge) ToggleMelody(enabled bool) { b.Toggle(voice.KindMelody, enabled) }
func (b *Bridge) ToggleLead(enabled bool)   { b.Toggle(voice.KindLead, enabled) }
func (b *Bridge) ToggleBass(enabled bool)   { b.Toggle(voice.KindBass, enabled) }

// InstrumentStates returns the engine flags, or the defaults without one.
func (b *Bridge) InstrumentStates() engine.States {
	if e := b.current(); e != nil {
		return e.States()
	}
	return engine.DefaultStates
}

// Session returns the id of the live engine.
func (b *Bridge) Session() (uuid.UUID, bool) {
	if e := b.current(); e != nil {
		return e.ID, true
	}
	return uuid.Nil, false
}

// NowPlaying returns the snapshot being played, if the engine is playing.
func (b *Bridge) NowPlaying() (weather.WeatherSnapshot, weather.Location, bool) {
	e := b.current()
	if e == nil || !e.Playing() {
		return weather.WeatherSnapshot{}, weather.Location{}, false
	}
	return e.Last()
}

// Engine returns the live engine or nil.
func (b *Bridge) Engine() *engine.Engine {
	return b.current()
}

func (b *Bridge) current() *engine.Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine
}
