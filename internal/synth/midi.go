package synth

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/i474232898/weather-in-sound/internal/music"
)

// General MIDI controllers used by the chain.
const (
	ccVolume = 7
	ccReverb = 91
	ccChorus = 93
	ccAllOff = 123
)

// percussionChannel is reserved for drums in General MIDI.
const percussionChannel = 9

// SendFunc writes one message to a MIDI output.
type SendFunc func(msg midi.Message) error

// programs maps oscillators to General MIDI programs (zero based).
var programs = map[music.Waveform]uint8{
	music.WaveSine:     88, // Pad 1 (new age)
	music.WaveTriangle: 73, // Flute
	music.WaveSquare:   80, // Lead 1 (square)
	music.WaveSawtooth: 81, // Lead 2 (sawtooth)
}

// OpenMIDIPort finds an output port by name and returns a sender for it.
// A driver must be registered by the caller (e.g. rtmididrv).
func OpenMIDIPort(name string) (SendFunc, error) {
	out, err := midi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("synth: find midi port %q: %w", name, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("synth: open midi port %q: %w", name, err)
	}
	return send, nil
}

// MIDI sends notes to a MIDI output, one channel per instrument.
type MIDI struct {
	send SendFunc

	mu      sync.Mutex
	free    []uint8
	resumed bool
	closed  bool
	pending map[*time.Timer]pendingOff
}

type pendingOff struct {
	channel uint8
	off     func()
}

// NewMIDI creates a MIDI backend writing through send.
func NewMIDI(send SendFunc) *MIDI {
	m := &MIDI{send: send, pending: make(map[*time.Timer]pendingOff)}
	for ch := uint8(0); ch < 16; ch++ {
		if ch != percussionChannel {
			m.free = append(m.free, ch)
		}
	}
	return m
}

func (m *MIDI) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.resumed = true
	return nil
}

func (m *MIDI) NewInstrument(ctx context.Context, cfg ChainConfig) (Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if !m.resumed {
		m.mu.Unlock()
		return nil, ErrNotResumed
	}
	if len(m.free) == 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("synth: no free midi channel for %s", cfg.Name)
	}
	ch := m.free[0]
	m.free = m.free[1:]
	m.mu.Unlock()

	inst := &midiInstrument{backend: m, channel: ch, name: cfg.Name}
	inst.SetOscillator(cfg.Oscillator)
	if err := m.send(midi.ControlChange(ch, ccVolume, decibelsToCC(cfg.VolumeDB))); err != nil {
		m.release(ch)
		return nil, fmt.Errorf("synth: configure %s: %w", cfg.Name, err)
	}
	inst.SetReverb(cfg.Reverb)
	if cfg.Chorus != nil {
		inst.SetChorus(*cfg.Chorus)
	}
	return inst, nil
}

// Close flushes pending note-offs and stops accepting notes.
func (m *MIDI) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	pending := m.pending
	m.pending = make(map[*time.Timer]pendingOff)
	m.mu.Unlock()

	for t, p := range pending {
		t.Stop()
		p.off()
	}
	return nil
}

// FreeChannels reports how many channels are available for new instruments.
func (m *MIDI) FreeChannels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.free)
}

// release silences ch, drops its pending note-offs and returns it to the
// free list.
func (m *MIDI) release(ch uint8) {
	m.mu.Lock()
	for t, p := range m.pending {
		if p.channel == ch {
			t.Stop()
			delete(m.pending, t)
		}
	}
	closed := m.closed
	m.free = append(m.free, ch)
	m.mu.Unlock()

	if !closed {
		m.write(midi.ControlChange(ch, ccAllOff, 0))
	}
}

func (m *MIDI) write(msg midi.Message) {
	if err := m.send(msg); err != nil {
		log.Printf("ERROR: synth: midi send %s: %v", msg, err)
	}
}

// later runs off after d unless Close flushes it first.
func (m *MIDI) later(ch uint8, d time.Duration, off func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		off()
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		m.mu.Lock()
		_, ok := m.pending[t]
		delete(m.pending, t)
		m.mu.Unlock()
		if ok {
			off()
		}
	})
	m.pending[t] = pendingOff{channel: ch, off: off}
}

func (m *MIDI) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type midiInstrument struct {
	backend *MIDI
	channel uint8
	name    string

	mu       sync.Mutex
	disposed bool
}

func (i *midiInstrument) TriggerAttackRelease(note string, dur, _ time.Duration, velocity float64) {
	p, err := music.ParsePitch(note)
	if err != nil {
		log.Printf("DEBUG: synth %s: %v", i.name, err)
		return
	}
	key := p.MIDI()
	if key < 0 || key > 127 {
		return
	}
	i.mu.Lock()
	disposed := i.disposed
	i.mu.Unlock()
	if disposed || i.backend.isClosed() {
		return
	}

	ch, k := i.channel, uint8(key)
	i.backend.write(midi.NoteOn(ch, k, velocityToMIDI(velocity)))
	i.backend.later(ch, dur, func() { i.backend.write(midi.NoteOff(ch, k)) })
}

func (i *midiInstrument) SetOscillator(w music.Waveform) {
	prog, ok := programs[w]
	if !ok {
		prog = programs[music.WaveSine]
	}
	i.backend.write(midi.ProgramChange(i.channel, prog))
}

// SetEnvelope has no portable MIDI equivalent; the synth patch decides.
func (i *midiInstrument) SetEnvelope(music.Envelope) {}

func (i *midiInstrument) SetReverb(r Reverb) {
	i.backend.write(midi.ControlChange(i.channel, ccReverb, unitToCC(r.Wet)))
}

func (i *midiInstrument) SetChorus(c Chorus) {
	i.backend.write(midi.ControlChange(i.channel, ccChorus, unitToCC(c.Depth/0.7)))
}

// Dispose sends all-notes-off and returns the channel. Later calls are no-ops.
func (i *midiInstrument) Dispose() {
	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return
	}
	i.disposed = true
	i.mu.Unlock()
	i.backend.release(i.channel)
}

func velocityToMIDI(v float64) uint8 {
	return uint8(math.Max(1, math.Round(clamp01(v)*127)))
}

func unitToCC(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 127))
}

func decibelsToCC(db float64) uint8 {
	return unitToCC(math.Pow(10, db/20))
}
