package voice

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-in-sound/internal/common"
	"github.com/i474232898/weather-in-sound/internal/music"
	"github.com/i474232898/weather-in-sound/internal/sequencer"
	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/transport"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// StandardPressure is sea-level air pressure in hPa.
const StandardPressure = 1013.25

// LeadChain is the lead instrument before any weather is applied.
var LeadChain = synth.ChainConfig{
	Name:       string(KindLead),
	Oscillator: music.WaveTriangle,
	Envelope:   music.Envelope{Attack: 0.1, Decay: 0.2, Sustain: 0.6, Release: 0.8},
	VolumeDB:   -6,
	Reverb:     synth.Reverb{Decay: 4, Wet: 0.5},
}

// DropChance is the probability that a lead note is skipped at the given
// air pressure. Normal and high pressure never drop notes; the chance
// grows as pressure falls and caps at one half. Zero means no reading.
func DropChance(pressure float64) float64 {
	if pressure <= 0 {
		return 0
	}
	return common.Clamp((StandardPressure-pressure)/100, 0, 0.5)
}

type leadState struct {
	octave        int
	transposition int
	windSpeed     float64
}

// Lead plays randomized scale notes in eighths, regenerating them every
// cycle.
type Lead struct {
	backend synth.Backend
	tr      *transport.Transport
	rng     *Rand

	mu      sync.Mutex
	inst    synth.Instrument
	pattern *sequencer.Pattern
	pool    *NotePool
	state   leadState
	playing bool
}

// NewLead creates an uninitialized lead voice.
func NewLead(backend synth.Backend, tr *transport.Transport, rng *Rand) *Lead {
	return &Lead{backend: backend, tr: tr, rng: rng, pool: NewNotePool(rng, nil)}
}

func (l *Lead) Kind() Kind { return KindLead }

// Initialize builds the instrument chain and the pattern. Repeated calls
// keep the existing chain.
func (l *Lead) Initialize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inst != nil {
		return nil
	}

	inst, err := l.backend.NewInstrument(ctx, LeadChain)
	if err != nil {
		return fmt.Errorf("lead: %w", err)
	}
	l.inst = inst
	l.pattern = sequencer.New(string(KindLead), l.tr, transport.Eighth, l.play,
		sequencer.WithGate(l.gate),
		sequencer.WithCycle(l.regenerate),
	)
	return nil
}

// Start applies snap and starts the loop.
func (l *Lead) Start(snap weather.WeatherSnapshot, loc weather.Location) {
	l.mu.Lock()
	if l.inst == nil {
		l.mu.Unlock()
		log.Println("DEBUG: lead: start before initialize ignored")
		return
	}

	params := music.MapWeatherToParameters(snap)
	scale := music.ScaleForWeather(snap)
	loc = locationFor(snap, loc)

	l.inst.SetOscillator(scale.Oscillator)
	l.inst.SetEnvelope(music.EnvelopeForLocation(loc.Lat, loc.Lon))
	l.inst.SetReverb(synth.Reverb{Decay: params.ReverbDecay, Wet: params.ReverbWet})
	l.tr.SetBPM(params.BPM)

	l.pool.Reset(scale.Notes)
	l.state = leadState{
		octave:        params.Octave(),
		transposition: snap.WindDirection.Transposition,
		windSpeed:     snap.WindSpeed,
	}
	notes := l.generateLocked()
	l.playing = true
	pattern := l.pattern
	l.mu.Unlock()

	pattern.SetGate(sequencer.Gate{AirPressure: snap.AirPressure, Humidity: snap.Humidity})
	pattern.Update(notes)
	pattern.Start()
}

// Stop halts the loop; the chain stays allocated.
func (l *Lead) Stop() {
	l.mu.Lock()
	l.playing = false
	pattern := l.pattern
	l.mu.Unlock()
	if pattern != nil {
		pattern.Stop()
	}
}

// Cleanup stops and releases the chain.
func (l *Lead) Cleanup() {
	l.Stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inst != nil {
		l.inst.Dispose()
	}
	l.inst = nil
	l.pattern = nil
}

// Notes returns the sequence currently looping.
func (l *Lead) Notes() []music.NoteEvent {
	l.mu.Lock()
	pattern := l.pattern
	l.mu.Unlock()
	if pattern == nil {
		return nil
	}
	return pattern.Notes()
}

func (l *Lead) generateLocked() []music.NoteEvent {
	count := NoteCount(l.state.windSpeed)
	notes := make([]music.NoteEvent, 0, count)
	for i := 0; i < count; i++ {
		name := l.pool.Next()
		if name == "" {
			break
		}
		pitch := music.Transpose(music.WithOctave(name, l.state.octave), l.state.transposition)
		notes = append(notes, music.Weighted(pitch, Velocity(l.rng, l.state.windSpeed), false))
	}
	return notes
}

func (l *Lead) regenerate() {
	l.mu.Lock()
	if !l.playing {
		l.mu.Unlock()
		return
	}
	notes := l.generateLocked()
	pattern := l.pattern
	l.mu.Unlock()
	pattern.Update(notes)
}

func (l *Lead) gate(g sequencer.Gate, _ music.NoteEvent) bool {
	chance := DropChance(g.AirPressure)
	return chance == 0 || l.rng.Float64() >= chance
}

func (l *Lead) play(at time.Duration, pitch string, velocity float64, hasVelocity bool) {
	l.mu.Lock()
	inst := l.inst
	l.mu.Unlock()
	if inst == nil {
		return
	}
	if !hasVelocity {
		velocity = synth.DefaultVelocity
	}
	inst.TriggerAttackRelease(pitch, transport.Eighth.Duration(l.tr.BPM()), at, velocity)
}
