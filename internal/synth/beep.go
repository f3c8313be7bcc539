package synth

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/i474232898/weather-in-sound/internal/music"
)

// DefaultSampleRate is used when no sample rate is configured.
const DefaultSampleRate = 48000

// Output is where the beep backend sends its master mix.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Close()
}

// SpeakerOutput plays through the system audio device.
type SpeakerOutput struct{}

func (SpeakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}

func (SpeakerOutput) Play(s beep.Streamer) { speaker.Play(s) }

func (SpeakerOutput) Close() {
	speaker.Clear()
	speaker.Close()
}

// Beep renders instruments in process with gopxl/beep.
type Beep struct {
	rate   beep.SampleRate
	out    Output
	master *bus

	mu      sync.Mutex
	resumed bool
	closed  bool
}

// NewBeep creates a beep backend. A nil out plays through the speaker.
func NewBeep(sampleRate int, out Output) *Beep {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if out == nil {
		out = SpeakerOutput{}
	}
	return &Beep{rate: beep.SampleRate(sampleRate), out: out, master: &bus{}}
}

// Resume opens the output device once.
func (b *Beep) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.resumed {
		return nil
	}
	if err := b.out.Init(b.rate, b.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	b.out.Play(b.master)
	b.resumed = true
	log.Printf("INFO: synth: beep output running at %d Hz", int(b.rate))
	return nil
}

func (b *Beep) NewInstrument(ctx context.Context, cfg ChainConfig) (Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if !b.resumed {
		return nil, ErrNotResumed
	}

	inst := &beepInstrument{rate: b.rate, cfg: cfg, voices: &bus{}}
	inst.reverb = newReverb(inst.voices, cfg.Reverb, b.rate)
	inst.gain = newDecibels(inst.reverb, cfg.VolumeDB)
	b.master.Add(inst.gain)
	return inst, nil
}

func (b *Beep) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.master.Close()
	if b.resumed {
		b.out.Close()
	}
	return nil
}

// beepInstrument chain: note voices -> reverb -> gain -> master.
type beepInstrument struct {
	rate   beep.SampleRate
	voices *bus
	reverb *reverb
	gain   *effects.Volume

	mu       sync.Mutex
	cfg      ChainConfig
	disposed bool
}

func (i *beepInstrument) TriggerAttackRelease(note string, dur, _ time.Duration, velocity float64) {
	p, err := music.ParsePitch(note)
	if err != nil {
		log.Printf("DEBUG: synth %s: %v", i.cfg.Name, err)
		return
	}

	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return
	}
	cfg := i.cfg
	i.mu.Unlock()

	total := dur + seconds(cfg.Envelope.Release)
	osc := newOscillator(p.Frequency(), total, cfg.Oscillator, cfg.Chorus, i.rate)
	env := newADSR(osc, cfg.Envelope, dur, i.rate)
	i.voices.Add(newVolume(env, velocity*0.3))
}

func (i *beepInstrument) SetOscillator(w music.Waveform) {
	i.mu.Lock()
	i.cfg.Oscillator = w
	i.mu.Unlock()
}

func (i *beepInstrument) SetEnvelope(e music.Envelope) {
	i.mu.Lock()
	i.cfg.Envelope = e
	i.mu.Unlock()
}

func (i *beepInstrument) SetReverb(r Reverb) {
	i.mu.Lock()
	i.cfg.Reverb = r
	i.mu.Unlock()
	i.reverb.set(r)
}

func (i *beepInstrument) SetChorus(c Chorus) {
	i.mu.Lock()
	i.cfg.Chorus = &c
	i.mu.Unlock()
}

func (i *beepInstrument) Dispose() {
	i.mu.Lock()
	i.disposed = true
	i.mu.Unlock()
	i.voices.Close()
}
