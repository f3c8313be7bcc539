package sequencer

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i474232898/weather-in-sound/internal/music"
	"github.com/i474232898/weather-in-sound/internal/transport"
)

// Trigger receives one emitted step. hasVelocity is false for simple notes.
type Trigger func(at time.Duration, pitch string, velocity float64, hasVelocity bool)

// Gate is the weather context consulted when a step fires. It is replaced
// as a whole through SetGate, never mutated in place.
type Gate struct {
	AirPressure float64
	Humidity    float64
}

// GateFunc decides at fire time whether a note plays.
type GateFunc func(g Gate, note music.NoteEvent) bool

// Option configures a Pattern.
type Option func(*Pattern)

// WithGate installs a fire-time gate.
func WithGate(fn GateFunc) Option {
	return func(p *Pattern) { p.gate = fn }
}

// WithCycle installs a hook that runs after the last note of every cycle.
func WithCycle(fn func()) Option {
	return func(p *Pattern) { p.onCycle = fn }
}

// Pattern loops a note list on the shared transport at a fixed interval.
// The list can be swapped while the loop runs without moving its position.
type Pattern struct {
	name     string
	tr       *transport.Transport
	interval transport.Ticks
	trigger  Trigger
	gate     GateFunc
	onCycle  func()

	notes   atomic.Pointer[[]music.NoteEvent]
	context atomic.Pointer[Gate]

	mu      sync.Mutex
	created bool
	running bool
	pos     int
	eventID transport.EventID
}

// New creates a pattern that does nothing until Create or Update.
func New(name string, tr *transport.Transport, interval transport.Ticks, trigger Trigger, opts ...Option) *Pattern {
	p := &Pattern{
		name:     name,
		tr:       tr,
		interval: interval,
		trigger:  trigger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.context.Store(&Gate{})
	return p
}

// Create builds the loop over notes in a stopped state, replacing any
// previous loop.
func (p *Pattern) Create(notes []music.NoteEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLocked()
	p.store(notes)
	p.pos = 0
	p.created = true
}

// Update swaps the note list of a created loop, keeping its position.
// Before Create it behaves like Create.
func (p *Pattern) Update(notes []music.NoteEvent) {
	p.mu.Lock()
	if !p.created {
		p.mu.Unlock()
		p.Create(notes)
		return
	}
	p.store(notes)
	p.mu.Unlock()
}

// Start schedules the loop on the transport grid at position zero. It is a
// no-op when the loop is running or has not been created.
func (p *Pattern) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.created {
		log.Printf("DEBUG: pattern %s: start before create ignored", p.name)
		return
	}
	if p.running {
		return
	}
	p.eventID = p.tr.ScheduleRepeat(p.step, p.interval, 0)
	p.running = true
}

// Stop clears the transport event and drops the loop. Safe at any time.
func (p *Pattern) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
	p.created = false
	p.pos = 0
}

// Running reports whether the loop is scheduled.
func (p *Pattern) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Notes returns the current (already filtered) note list.
func (p *Pattern) Notes() []music.NoteEvent {
	if l := p.notes.Load(); l != nil {
		return *l
	}
	return nil
}

// SetGate replaces the fire-time context.
func (p *Pattern) SetGate(g Gate) {
	p.context.Store(&g)
}

// CurrentGate returns the fire-time context.
func (p *Pattern) CurrentGate() Gate {
	return *p.context.Load()
}

func (p *Pattern) clearLocked() {
	if p.running {
		p.tr.Clear(p.eventID)
		p.running = false
	}
}

func (p *Pattern) store(notes []music.NoteEvent) {
	playable := make([]music.NoteEvent, 0, len(notes))
	for _, n := range notes {
		if !n.Silent {
			playable = append(playable, n)
		}
	}
	p.notes.Store(&playable)
}

// step reads the list under mu after the running check, so a Stop or
// Update that returned before the step began is always observed.
func (p *Pattern) step(at time.Duration) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	list := p.Notes()
	if len(list) == 0 {
		p.mu.Unlock()
		return
	}
	i := p.pos % len(list)
	p.pos = i + 1
	last := p.pos == len(list)
	if last {
		p.pos = 0
	}
	p.mu.Unlock()

	note := list[i]
	if p.gate == nil || p.gate(p.CurrentGate(), note) {
		v, ok := note.Velocity()
		p.trigger(at, note.Pitch, v, ok)
	}
	if last && p.onCycle != nil {
		p.onCycle()
	}
}
