package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/transport"
	"github.com/i474232898/weather-in-sound/internal/voice"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// ErrNotInitialized is returned when playback is requested before Initialize.
var ErrNotInitialized = errors.New("engine: not initialized")

// States are the per-voice enable flags.
type States struct {
	Melody bool `json:"melody"`
	Lead   bool `json:"lead"`
	Bass   bool `json:"bass"`
}

// DefaultStates is what a fresh engine starts with.
var DefaultStates = States{Melody: false, Lead: true, Bass: true}

func (s States) get(k voice.Kind) bool {
	switch k {
	case voice.KindMelody:
		return s.Melody
	case voice.KindLead:
		return s.Lead
	default:
		return s.Bass
	}
}

func (s *States) set(k voice.Kind, v bool) {
	switch k {
	case voice.KindMelody:
		s.Melody = v
	case voice.KindLead:
		s.Lead = v
	default:
		s.Bass = v
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransport shares an existing transport.
func WithTransport(tr *transport.Transport) Option {
	return func(e *Engine) { e.tr = tr }
}

// WithManualClock keeps the transport driver stopped; the caller advances
// the clock itself.
func WithManualClock() Option {
	return func(e *Engine) { e.manualClock = true }
}

// WithSeed fixes the random source of the lead voice.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// Engine owns the three voices and the transport-start guard.
type Engine struct {
	ID uuid.UUID

	backend     synth.Backend
	tr          *transport.Transport
	manualClock bool
	seed        int64
	voices      map[voice.Kind]voice.Voice

	mu               sync.Mutex
	states           States
	initialized      bool
	transportStarted bool
	playing          bool
	last             *weather.WeatherSnapshot
	lastLoc          weather.Location
}

// New creates an uninitialized engine playing through backend.
func New(backend synth.Backend, opts ...Option) *Engine {
	e := &Engine{
		ID:      uuid.New(),
		backend: backend,
		states:  DefaultStates,
		seed:    time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tr == nil {
		e.tr = transport.New()
	}
	e.voices = map[voice.Kind]voice.Voice{
		voice.KindMelody: voice.NewMelody(backend, e.tr),
		voice.KindLead:   voice.NewLead(backend, e.tr, voice.NewRand(e.seed)),
		voice.KindBass:   voice.NewBass(backend, e.tr),
	}
	return e
}

// Transport returns the shared clock.
func (e *Engine) Transport() *transport.Transport {
	return e.tr
}

// Voice returns one voice, mostly for inspection.
func (e *Engine) Voice(k voice.Kind) voice.Voice {
	return e.voices[k]
}

// Initialize resumes the backend and starts the transport once, then
// initializes every voice in parallel. Any failure fails the whole call
// and leaves the engine uninitialized.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}

	if !e.transportStarted {
		if err := e.backend.Resume(ctx); err != nil {
			return fmt.Errorf("engine: resume audio: %w", err)
		}
		if !e.manualClock {
			if err := e.tr.Start(ctx); err != nil {
				return fmt.Errorf("engine: start transport: %w", err)
			}
		}
		e.transportStarted = true
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(voice.Kinds))
	)
	for i, k := range voice.Kinds {
		wg.Add(1)
		go func(i int, v voice.Voice) {
			defer wg.Done()
			errs[i] = v.Initialize(ctx)
		}(i, e.voices[k])
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		e.teardownLocked()
		log.Printf("ERROR: engine %s: initialize failed: %v", e.ID, err)
		return fmt.Errorf("engine: initialize: %w", err)
	}

	e.initialized = true
	log.Printf("INFO: engine %s: initialized", e.ID)
	return nil
}

// Initialized reports whether Initialize succeeded.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// PlayWeatherMelody starts every enabled voice with snap and remembers it
// for voices enabled later.
func (e *Engine) PlayWeatherMelody(snap weather.WeatherSnapshot, loc weather.Location) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}

	e.last = &snap
	e.lastLoc = loc
	e.playing = true
	for _, k := range voice.Kinds {
		if e.states.get(k) {
			e.voices[k].Start(snap, loc)
		}
	}
	log.Printf("INFO: engine %s: playing %s (%s, %d°C, %.0f km/h)",
		e.ID, loc.City, snap.Condition.Label(), snap.Temperature, snap.WindSpeed)
	return nil
}

// StopMelody stops all voices regardless of their flags.
func (e *Engine) StopMelody() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	for _, k := range voice.Kinds {
		e.voices[k].Stop()
	}
}

// Toggle flips one voice. Enabling starts it with the last snapshot, if
// any; disabling stops only that voice.
func (e *Engine) Toggle(k voice.Kind, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.states.set(k, enabled)
	v := e.voices[k]
	switch {
	case !enabled:
		v.Stop()
	case e.initialized && e.last != nil:
		v.Start(*e.last, e.lastLoc)
	}
}

// States returns the enable flags.
func (e *Engine) States() States {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states
}

// Last returns the most recent snapshot passed to PlayWeatherMelody.
func (e *Engine) Last() (weather.WeatherSnapshot, weather.Location, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return weather.WeatherSnapshot{}, weather.Location{}, false
	}
	return *e.last, e.lastLoc, true
}

// Playing reports whether the engine is between a play and a stop.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Cleanup releases every voice, stops the transport and clears the guard.
// The engine may be initialized again afterwards.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardownLocked()
	log.Printf("INFO: engine %s: cleaned up", e.ID)
}

func (e *Engine) teardownLocked() {
	for _, k := range voice.Kinds {
		e.voices[k].Cleanup()
	}
	e.tr.Stop()
	e.transportStarted = false
	e.initialized = false
	e.playing = false
}
