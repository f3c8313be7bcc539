package voice

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/i474232898/weather-in-sound/internal/music"
	"github.com/i474232898/weather-in-sound/internal/sequencer"
	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/transport"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// BassVelocity is the fixed velocity of every drone note.
const BassVelocity = 0.7

// BassChain is a slow sawtooth drone.
var BassChain = synth.ChainConfig{
	Name:       string(KindBass),
	Oscillator: music.WaveSawtooth,
	Envelope:   music.Envelope{Attack: 0.4, Decay: 0.5, Sustain: 0.9, Release: 2.0},
	VolumeDB:   -12,
	Reverb:     synth.Reverb{Decay: 4, Wet: 0.3},
	Chorus:     &synth.Chorus{},
}

// Triad returns scale degrees 0, 2 and 4 two octaves below baseOctave.
func Triad(scale *music.WeatherScale, baseOctave int) []music.NoteEvent {
	octave := baseOctave - 2
	notes := make([]music.NoteEvent, 0, 3)
	for _, degree := range []int{0, 2, 4} {
		if degree >= len(scale.Notes) {
			break
		}
		notes = append(notes, music.Weighted(music.WithOctave(scale.Notes[degree], octave), BassVelocity, false))
	}
	return notes
}

// ChorusFor tracks wind speed in km/h.
func ChorusFor(windSpeed float64) synth.Chorus {
	windSpeed = math.Max(windSpeed, 0)
	return synth.Chorus{
		Rate:  math.Min(10, windSpeed/2),
		Depth: math.Min(0.7, windSpeed/20),
	}
}

// Bass holds a triad drone in half notes at half the mapped tempo.
type Bass struct {
	backend synth.Backend
	tr      *transport.Transport

	mu      sync.Mutex
	inst    synth.Instrument
	pattern *sequencer.Pattern
}

// NewBass creates an uninitialized bass voice.
func NewBass(backend synth.Backend, tr *transport.Transport) *Bass {
	return &Bass{backend: backend, tr: tr}
}

func (b *Bass) Kind() Kind { return KindBass }

func (b *Bass) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inst != nil {
		return nil
	}

	inst, err := b.backend.NewInstrument(ctx, BassChain)
	if err != nil {
		return fmt.Errorf("bass: %w", err)
	}
	b.inst = inst
	b.pattern = sequencer.New(string(KindBass), b.tr, transport.Half, b.play)
	return nil
}

func (b *Bass) Start(snap weather.WeatherSnapshot, _ weather.Location) {
	b.mu.Lock()
	if b.inst == nil {
		b.mu.Unlock()
		log.Println("DEBUG: bass: start before initialize ignored")
		return
	}

	params := music.MapWeatherToParameters(snap)
	scale := music.ScaleForWeather(snap)

	b.inst.SetReverb(synth.Reverb{Decay: params.ReverbDecay * 1.5, Wet: params.ReverbWet * 0.8})
	b.inst.SetChorus(ChorusFor(snap.WindSpeed))
	b.tr.SetBPM(params.BPM * 0.5)
	pattern := b.pattern
	b.mu.Unlock()

	pattern.Update(Triad(scale, params.Octave()))
	pattern.Start()
}

func (b *Bass) Stop() {
	b.mu.Lock()
	pattern := b.pattern
	b.mu.Unlock()
	if pattern != nil {
		pattern.Stop()
	}
}

func (b *Bass) Cleanup() {
	b.Stop()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inst != nil {
		b.inst.Dispose()
	}
	b.inst = nil
	b.pattern = nil
}

// Notes returns the triad currently looping.
func (b *Bass) Notes() []music.NoteEvent {
	b.mu.Lock()
	pattern := b.pattern
	b.mu.Unlock()
	if pattern == nil {
		return nil
	}
	return pattern.Notes()
}

func (b *Bass) play(at time.Duration, pitch string, velocity float64, hasVelocity bool) {
	b.mu.Lock()
	inst := b.inst
	b.mu.Unlock()
	if inst == nil {
		return
	}
	if !hasVelocity {
		velocity = BassVelocity
	}
	inst.TriggerAttackRelease(pitch, transport.Half.Duration(b.tr.BPM()), at, velocity)
}
