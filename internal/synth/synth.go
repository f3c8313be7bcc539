// Package synth holds the synthesis capability the voices play through.
// Backends render notes with beep, send them to a MIDI port or just
// record them.
package synth

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-in-sound/internal/music"
)

var (
	ErrClosed         = errors.New("synth: backend closed")
	ErrNotResumed     = errors.New("synth: audio context not resumed")
	ErrUnknownBackend = errors.New("synth: unknown backend")
)

// DefaultVelocity is used for notes without their own velocity.
const DefaultVelocity = 1.0

// Reverb settings. Decay is in seconds, Wet in [0, 1].
type Reverb struct {
	Decay float64 `json:"decay"`
	Wet   float64 `json:"wet"`
}

// Chorus settings. Rate is in Hz, Depth in [0, 1].
type Chorus struct {
	Rate  float64 `json:"rate"`
	Depth float64 `json:"depth"`
}

// ChainConfig describes one instrument and its fixed effect chain:
// oscillator, envelope, optional chorus, reverb, then volume.
type ChainConfig struct {
	Name       string
	Oscillator music.Waveform
	Envelope   music.Envelope
	VolumeDB   float64
	Reverb     Reverb
	Chorus     *Chorus
}

// Instrument plays notes through its chain. Implementations are safe for
// concurrent use.
type Instrument interface {
	// TriggerAttackRelease plays note for dur. at is the transport host
	// time of the step.
	TriggerAttackRelease(note string, dur, at time.Duration, velocity float64)
	SetOscillator(w music.Waveform)
	SetEnvelope(e music.Envelope)
	SetReverb(r Reverb)
	SetChorus(c Chorus)
	Dispose()
}

// Backend creates instruments. Resume must succeed before instruments
// produce sound.
type Backend interface {
	Resume(ctx context.Context) error
	NewInstrument(ctx context.Context, cfg ChainConfig) (Instrument, error)
	Close() error
}
