package synth

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/i474232898/weather-in-sound/internal/music"
)

// oscillator generates one waveform, optionally with a chorus-style
// vibrato, for a fixed number of samples.
type oscillator struct {
	freq     float64
	phase    float64
	lfoPhase float64
	lfoRate  float64
	lfoDepth float64
	wave     music.Waveform
	rate     beep.SampleRate
	position int
	duration int
}

func newOscillator(freq float64, duration time.Duration, wave music.Waveform, chorus *Chorus, rate beep.SampleRate) *oscillator {
	o := &oscillator{
		freq:     freq,
		wave:     wave,
		rate:     rate,
		duration: rate.N(duration),
	}
	if chorus != nil {
		o.lfoRate = chorus.Rate
		o.lfoDepth = chorus.Depth
	}
	return o
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case music.WaveSquare:
			if o.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case music.WaveSawtooth:
			val = 2 * (o.phase - 0.5)
		case music.WaveTriangle:
			val = 4*math.Abs(o.phase-0.5) - 1
		default:
			val = math.Sin(2 * math.Pi * o.phase)
		}

		samples[i][0] = val
		samples[i][1] = val

		freq := o.freq
		if o.lfoRate > 0 && o.lfoDepth > 0 {
			// Depth 1 swings a quarter tone.
			freq *= 1 + o.lfoDepth*0.03*math.Sin(2*math.Pi*o.lfoPhase)
			o.lfoPhase += o.lfoRate / float64(o.rate)
			o.lfoPhase -= math.Floor(o.lfoPhase)
		}
		o.phase += freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// adsr shapes a note held for hold, then released over env.Release.
type adsr struct {
	streamer beep.Streamer
	position int
	attack   int
	decay    int
	hold     int
	release  int
	sustain  float64
}

func newADSR(s beep.Streamer, env music.Envelope, hold time.Duration, rate beep.SampleRate) *adsr {
	return &adsr{
		streamer: s,
		attack:   rate.N(seconds(env.Attack)),
		decay:    rate.N(seconds(env.Decay)),
		hold:     rate.N(hold),
		release:  rate.N(seconds(env.Release)),
		sustain:  clamp01(env.Sustain),
	}
}

func (e *adsr) level(pos int) float64 {
	held := e.heldLevel(min(pos, e.hold))
	if pos < e.hold {
		return held
	}
	if e.release <= 0 {
		return 0
	}
	return held * math.Max(0, 1-float64(pos-e.hold)/float64(e.release))
}

func (e *adsr) heldLevel(pos int) float64 {
	switch {
	case pos < e.attack:
		return float64(pos) / float64(e.attack)
	case pos < e.attack+e.decay:
		return 1 - (1-e.sustain)*float64(pos-e.attack)/float64(e.decay)
	default:
		return e.sustain
	}
}

func (e *adsr) Stream(samples [][2]float64) (n int, ok bool) {
	total := e.hold + e.release
	if e.position >= total {
		return 0, false
	}
	if rest := total - e.position; len(samples) > rest {
		samples = samples[:rest]
	}
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := e.level(e.position)
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *adsr) Err() error { return e.streamer.Err() }

// bus sums a changing set of streamers. It keeps streaming silence while
// empty and ends only once closed.
type bus struct {
	mu      sync.Mutex
	sources []beep.Streamer
	scratch [][2]float64
	closed  bool
}

func (b *bus) Add(s ...beep.Streamer) {
	b.mu.Lock()
	if !b.closed {
		b.sources = append(b.sources, s...)
	}
	b.mu.Unlock()
}

func (b *bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sources)
}

func (b *bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.sources = nil
	b.mu.Unlock()
}

func (b *bus) Stream(samples [][2]float64) (n int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, false
	}

	for i := range samples {
		samples[i] = [2]float64{}
	}
	if cap(b.scratch) < len(samples) {
		b.scratch = make([][2]float64, len(samples))
	}
	buf := b.scratch[:len(samples)]

	remaining := b.sources[:0]
	for _, s := range b.sources {
		sn, sok := s.Stream(buf)
		for i := 0; i < sn; i++ {
			samples[i][0] += buf[i][0]
			samples[i][1] += buf[i][1]
		}
		if sok && sn == len(buf) {
			remaining = append(remaining, s)
		}
	}
	for i := len(remaining); i < len(b.sources); i++ {
		b.sources[i] = nil
	}
	b.sources = remaining
	return len(samples), true
}

func (b *bus) Err() error { return nil }

// reverbDelay is the comb delay of the reverb tail.
const reverbDelay = 45 * time.Millisecond

// reverb is a feedback comb tuned so the tail falls 60 dB over decay.
type reverb struct {
	streamer beep.Streamer
	rate     beep.SampleRate

	mu       sync.Mutex
	buf      [][2]float64
	pos      int
	feedback float64
	wet      float64
}

func newReverb(s beep.Streamer, r Reverb, rate beep.SampleRate) *reverb {
	rv := &reverb{
		streamer: s,
		rate:     rate,
		buf:      make([][2]float64, max(1, rate.N(reverbDelay))),
	}
	rv.set(r)
	return rv
}

func (r *reverb) set(p Reverb) {
	fb := 0.0
	if p.Decay > 0 {
		fb = math.Pow(10, -3*reverbDelay.Seconds()/p.Decay)
	}
	r.mu.Lock()
	r.feedback = fb
	r.wet = clamp01(p.Wet)
	r.mu.Unlock()
}

func (r *reverb) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = r.streamer.Stream(samples)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < n; i++ {
		for c := 0; c < 2; c++ {
			dry := samples[i][c]
			tail := r.buf[r.pos][c]
			r.buf[r.pos][c] = dry + tail*r.feedback
			samples[i][c] = dry*(1-r.wet) + tail*r.wet
		}
		r.pos = (r.pos + 1) % len(r.buf)
	}
	return n, ok
}

func (r *reverb) Err() error { return r.streamer.Err() }

// newVolume scales s linearly; vol <= 0 is silent.
func newVolume(s beep.Streamer, vol float64) *effects.Volume {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// newDecibels applies a gain in dB.
func newDecibels(s beep.Streamer, db float64) *effects.Volume {
	return &effects.Volume{Streamer: s, Base: 10, Volume: db / 20}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
