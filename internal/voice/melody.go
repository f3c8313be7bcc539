package voice

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-in-sound/internal/music"
	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/transport"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// MelodyChain is the motif instrument.
var MelodyChain = synth.ChainConfig{
	Name:       string(KindMelody),
	Oscillator: music.WaveTriangle,
	Envelope:   music.Envelope{Attack: 0.1, Decay: 0.2, Sustain: 0.7, Release: 0.5},
	VolumeDB:   -5,
}

// Melody loops the condition's motif verbatim every two measures.
type Melody struct {
	backend synth.Backend
	tr      *transport.Transport

	mu      sync.Mutex
	inst    synth.Instrument
	motif   *music.Motif
	events  []transport.EventID
	playing bool
}

// NewMelody creates an uninitialized melody voice.
func NewMelody(backend synth.Backend, tr *transport.Transport) *Melody {
	return &Melody{backend: backend, tr: tr}
}

func (m *Melody) Kind() Kind { return KindMelody }

func (m *Melody) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inst != nil {
		return nil
	}
	inst, err := m.backend.NewInstrument(ctx, MelodyChain)
	if err != nil {
		return fmt.Errorf("melody: %w", err)
	}
	m.inst = inst
	return nil
}

// Start replaces any scheduled motif with the one for snap's condition.
func (m *Melody) Start(snap weather.WeatherSnapshot, _ weather.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inst == nil {
		log.Println("DEBUG: melody: start before initialize ignored")
		return
	}

	params := music.MapWeatherToParameters(snap)
	m.tr.SetBPM(params.BPM)

	m.clearLocked()
	m.motif = music.MotifFor(snap.Condition)
	m.playing = true
	for _, ev := range m.motif.Events {
		id := m.tr.ScheduleRepeat(func(at time.Duration) { m.play(at, ev) }, music.MotifLength, ev.At)
		m.events = append(m.events, id)
	}
}

// Stop clears every scheduled motif note.
func (m *Melody) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.clearLocked()
}

func (m *Melody) Cleanup() {
	m.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inst != nil {
		m.inst.Dispose()
	}
	m.inst = nil
	m.motif = nil
}

// Motif returns the motif being looped, or nil.
func (m *Melody) Motif() *music.Motif {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return nil
	}
	return m.motif
}

func (m *Melody) clearLocked() {
	for _, id := range m.events {
		m.tr.Clear(id)
	}
	m.events = m.events[:0]
}

func (m *Melody) play(at time.Duration, ev music.MotifEvent) {
	m.mu.Lock()
	inst, playing := m.inst, m.playing
	m.mu.Unlock()
	if !playing || inst == nil {
		return
	}
	inst.TriggerAttackRelease(ev.Note, ev.Duration.Duration(m.tr.BPM()), at, synth.DefaultVelocity)
}
