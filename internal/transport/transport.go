package transport

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultBPM is the tempo before any voice sets one.
const DefaultBPM = 120.0

// Tempo bounds accepted by SetBPM.
const (
	MinBPM = 20.0
	MaxBPM = 400.0
)

// maxCatchUp bounds how much missed time the driver replays after a stall.
const maxCatchUp = 250 * time.Millisecond

// Callback runs on the transport goroutine. at is the host time of the
// tick, measured from when the transport position was last reset.
type Callback func(at time.Duration)

// EventID identifies a scheduled repeating event.
type EventID uint64

type event struct {
	id       EventID
	cb       Callback
	start    Ticks
	interval Ticks
}

func (e *event) due(pos Ticks) bool {
	if pos < e.start {
		return false
	}
	if e.interval <= 0 {
		return pos == e.start
	}
	return (pos-e.start)%e.interval == 0
}

// Transport is the shared musical clock. Voices schedule repeating
// callbacks on it; the tempo is process-wide and last write wins.
//
// The clock only moves through Advance. Start runs a driver goroutine that
// advances it in real time; tests drive Advance directly.
type Transport struct {
	mu       sync.Mutex
	bpm      float64
	pos      Ticks         // next tick to process
	elapsed  time.Duration // host time at pos
	events   map[EventID]*event
	nextID   EventID
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	pollRate time.Duration
}

// New creates a stopped transport at DefaultBPM.
func New() *Transport {
	return &Transport{
		bpm:      DefaultBPM,
		events:   make(map[EventID]*event),
		pollRate: 5 * time.Millisecond,
	}
}

// SetBPM changes the tempo, clamped to [MinBPM, MaxBPM].
func (t *Transport) SetBPM(bpm float64) {
	if bpm < MinBPM {
		bpm = MinBPM
	} else if bpm > MaxBPM {
		bpm = MaxBPM
	}
	t.mu.Lock()
	t.bpm = bpm
	t.mu.Unlock()
}

// BPM returns the current tempo.
func (t *Transport) BPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpm
}

// Position returns the next tick the transport will process.
func (t *Transport) Position() Ticks {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Running reports whether the real-time driver is active.
func (t *Transport) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// ScheduleRepeat invokes cb every interval ticks on the grid anchored at
// start. If the transport is already past start the first call lands on the
// next grid point.
func (t *Transport) ScheduleRepeat(cb Callback, interval, start Ticks) EventID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.events[id] = &event{id: id, cb: cb, start: start, interval: interval}
	return id
}

// Clear removes a scheduled event. Unknown ids are ignored.
func (t *Transport) Clear(id EventID) {
	t.mu.Lock()
	delete(t.events, id)
	t.mu.Unlock()
}

// Scheduled returns the number of live events.
func (t *Transport) Scheduled() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

// Advance processes n ticks, firing due callbacks in scheduling order.
// Callbacks run without the transport lock held so they may schedule or
// clear events.
func (t *Transport) Advance(n Ticks) {
	for i := Ticks(0); i < n; i++ {
		t.mu.Lock()
		pos, at := t.pos, t.elapsed
		var due []*event
		for _, e := range t.events {
			if e.due(pos) {
				due = append(due, e)
			}
		}
		t.pos++
		t.elapsed += Ticks(1).Duration(t.bpm)
		t.mu.Unlock()

		sort.Slice(due, func(a, b int) bool { return due[a].id < due[b].id })
		for _, e := range due {
			if t.live(e.id) {
				e.cb(at)
			}
		}
	}
}

// live reports whether id is still scheduled; an earlier callback in the
// same tick may have cleared it.
func (t *Transport) live(id EventID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.events[id]
	return ok
}

// Start launches the real-time driver. It is idempotent.
func (t *Transport) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true

	go t.drive(runCtx, t.done)
	log.Printf("INFO: transport started at %.0f bpm", t.bpm)
	return nil
}

func (t *Transport) drive(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.pollRate)
	defer ticker.Stop()

	last := time.Now()
	var carry time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			carry += now.Sub(last)
			last = now
			if carry > maxCatchUp {
				carry = maxCatchUp
			}
			for {
				step := TickDuration(t.BPM())
				if carry < step {
					break
				}
				carry -= step
				t.Advance(1)
			}
		}
	}
}

// Stop halts the driver and rewinds the position to zero. Scheduled events
// are kept; owners clear their own. Safe to call when not started, but not
// from inside a callback.
func (t *Transport) Stop() {
	t.mu.Lock()
	if !t.running {
		t.pos, t.elapsed = 0, 0
		t.mu.Unlock()
		return
	}
	cancel, done := t.cancel, t.done
	t.running = false
	t.mu.Unlock()

	cancel()
	<-done

	t.mu.Lock()
	t.pos, t.elapsed = 0, 0
	t.mu.Unlock()
	log.Println("INFO: transport stopped")
}
