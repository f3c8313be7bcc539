package voice

import (
	"math"

	"github.com/i474232898/weather-in-sound/internal/common"
)

// NotePool draws notes without replacement. When every note has been drawn
// it refills from the full set and reshuffles, so each pass covers the
// whole scale before any note repeats.
type NotePool struct {
	rng    *Rand
	source []string
	queue  []string
}

// NewNotePool creates a pool over notes.
func NewNotePool(rng *Rand, notes []string) *NotePool {
	p := &NotePool{rng: rng}
	p.Reset(notes)
	return p
}

// Reset replaces the note set and empties the queue.
func (p *NotePool) Reset(notes []string) {
	p.source = append(p.source[:0], notes...)
	p.queue = p.queue[:0]
}

// Next returns the next note, or "" for an empty pool.
func (p *NotePool) Next() string {
	if len(p.source) == 0 {
		return ""
	}
	if len(p.queue) == 0 {
		p.queue = append(p.queue, p.source...)
		p.rng.Shuffle(len(p.queue), func(i, j int) {
			p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
		})
	}
	n := p.queue[0]
	p.queue = p.queue[1:]
	return n
}

// Remaining is the number of draws left before the next refill.
func (p *NotePool) Remaining() int {
	return len(p.queue)
}

// NoteCount is the number of lead notes per cycle for a wind speed in km/h.
// Above 30 km/h the count drops back to the minimum.
func NoteCount(windSpeed float64) int {
	switch {
	case windSpeed <= 1:
		return 3
	case windSpeed <= 5:
		return 6
	case windSpeed <= 10:
		return 8
	case windSpeed <= 15:
		return 9
	case windSpeed <= 20:
		return 10
	case windSpeed <= 25:
		return 12
	case windSpeed <= 30:
		return 15
	default:
		return 3
	}
}

// Velocity draws a lead velocity. The spread of the random accent widens
// with wind speed.
func Velocity(rng *Rand, windSpeed float64) float64 {
	windFactor := math.Min(math.Max(windSpeed, 0)/30, 1)
	spread := 0.2 + 0.6*windFactor
	base := 0.3 + rng.Float64()*0.7
	offset := (rng.Float64() - 0.5) * spread
	return common.Clamp(base+offset, 0.1, 1.0)
}
