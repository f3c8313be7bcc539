package synth

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-in-sound/internal/music"
)

// Note is one triggered note as seen by a Recorder.
type Note struct {
	Instrument string
	Pitch      string
	Duration   time.Duration
	At         time.Duration
	Velocity   float64
}

// DefaultMaxNotes bounds the history a Recorder keeps.
const DefaultMaxNotes = 4096

// Recorder is a backend that keeps the most recent played notes in memory
// and optionally logs them. It backs the "log" backend and the tests.
type Recorder struct {
	Verbose bool

	// MaxNotes caps the kept history; older notes are dropped first.
	// Zero or less keeps nothing.
	MaxNotes int

	// FailInstrument makes NewInstrument fail for the named chain.
	FailInstrument string

	mu          sync.Mutex
	resumed     bool
	closed      bool
	notes       []Note
	instruments map[string]*RecordedInstrument
}

// NewRecorder creates an empty recorder.
func NewRecorder(verbose bool) *Recorder {
	return &Recorder{
		Verbose:     verbose,
		MaxNotes:    DefaultMaxNotes,
		instruments: make(map[string]*RecordedInstrument),
	}
}

func (r *Recorder) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.resumed = true
	return nil
}

func (r *Recorder) NewInstrument(ctx context.Context, cfg ChainConfig) (Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if r.FailInstrument != "" && r.FailInstrument == cfg.Name {
		return nil, fmt.Errorf("synth: cannot create instrument %q", cfg.Name)
	}
	inst := &RecordedInstrument{rec: r, cfg: cfg}
	r.instruments[cfg.Name] = inst
	return inst, nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Resumed reports whether Resume succeeded.
func (r *Recorder) Resumed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resumed
}

// Notes returns a copy of the kept notes, oldest first.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// NotesFor returns the notes played by one instrument.
func (r *Recorder) NotesFor(name string) []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Note
	for _, n := range r.notes {
		if n.Instrument == name {
			out = append(out, n)
		}
	}
	return out
}

// Reset forgets recorded notes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notes = nil
	r.mu.Unlock()
}

// Instrument returns the most recent instrument created for name.
func (r *Recorder) Instrument(name string) *RecordedInstrument {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instruments[name]
}

func (r *Recorder) record(n Note) {
	r.mu.Lock()
	if r.MaxNotes > 0 {
		if len(r.notes) >= r.MaxNotes {
			drop := len(r.notes) - r.MaxNotes + 1
			r.notes = append(r.notes[:0], r.notes[drop:]...)
		}
		r.notes = append(r.notes, n)
	}
	verbose := r.Verbose
	r.mu.Unlock()
	if verbose {
		log.Printf("DEBUG: synth %s: %s for %s (velocity %.2f)", n.Instrument, n.Pitch, n.Duration, n.Velocity)
	}
}

// RecordedInstrument exposes the chain state for inspection.
type RecordedInstrument struct {
	rec *Recorder

	mu       sync.Mutex
	cfg      ChainConfig
	disposed bool
}

func (i *RecordedInstrument) TriggerAttackRelease(note string, dur, at time.Duration, velocity float64) {
	i.mu.Lock()
	name, disposed := i.cfg.Name, i.disposed
	i.mu.Unlock()
	if disposed {
		return
	}
	i.rec.record(Note{Instrument: name, Pitch: note, Duration: dur, At: at, Velocity: velocity})
}

func (i *RecordedInstrument) SetOscillator(w music.Waveform) {
	i.mu.Lock()
	i.cfg.Oscillator = w
	i.mu.Unlock()
}

func (i *RecordedInstrument) SetEnvelope(e music.Envelope) {
	i.mu.Lock()
	i.cfg.Envelope = e
	i.mu.Unlock()
}

func (i *RecordedInstrument) SetReverb(r Reverb) {
	i.mu.Lock()
	i.cfg.Reverb = r
	i.mu.Unlock()
}

func (i *RecordedInstrument) SetChorus(c Chorus) {
	i.mu.Lock()
	i.cfg.Chorus = &c
	i.mu.Unlock()
}

func (i *RecordedInstrument) Dispose() {
	i.mu.Lock()
	i.disposed = true
	i.mu.Unlock()
}

// Config returns the current chain settings.
func (i *RecordedInstrument) Config() ChainConfig {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cfg
}

// Disposed reports whether Dispose was called.
func (i *RecordedInstrument) Disposed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposed
}
