package transport

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ticks measure musical time. PPQ ticks make one quarter note.
type Ticks int64

// PPQ is the transport resolution in pulses per quarter note.
const PPQ Ticks = 192

// Musical subdivisions in 4/4.
const (
	ThirtySecond Ticks = PPQ / 8
	Sixteenth    Ticks = PPQ / 4
	Eighth       Ticks = PPQ / 2
	Quarter      Ticks = PPQ
	Half         Ticks = PPQ * 2
	Whole        Ticks = PPQ * 4
	Measure      Ticks = Whole
)

// ParseSubdivision parses notation such as "8n", "2n", "1m" or "4n.".
func ParseSubdivision(s string) (Ticks, error) {
	s = strings.TrimSpace(s)
	dotted := strings.HasSuffix(s, ".")
	s = strings.TrimSuffix(s, ".")
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid subdivision %q", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid subdivision %q", s)
	}

	var t Ticks
	switch s[len(s)-1] {
	case 'n':
		if Whole%Ticks(n) != 0 {
			return 0, fmt.Errorf("subdivision %q is finer than the transport resolution", s)
		}
		t = Whole / Ticks(n)
	case 'm':
		t = Measure * Ticks(n)
	default:
		return 0, fmt.Errorf("invalid subdivision %q", s)
	}
	if dotted {
		t += t / 2
	}
	return t, nil
}

// MustSubdivision is ParseSubdivision for static tables.
func MustSubdivision(s string) Ticks {
	t, err := ParseSubdivision(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParsePosition parses "bars:beats:sixteenths" where the last field may be
// fractional ("0:0:2.5").
func ParsePosition(s string) (Ticks, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	bars, err := strconv.Atoi(parts[0])
	if err != nil || bars < 0 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	beats, err := strconv.Atoi(parts[1])
	if err != nil || beats < 0 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	sixteenths, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || sixteenths < 0 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return Ticks(bars)*Measure + Ticks(beats)*Quarter + Ticks(sixteenths*float64(Sixteenth)), nil
}

// MustPosition is ParsePosition for static tables.
func MustPosition(s string) Ticks {
	t, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TickDuration is the wall-clock length of one tick at bpm.
func TickDuration(bpm float64) time.Duration {
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	return time.Duration(float64(time.Minute) / (bpm * float64(PPQ)))
}

// Duration converts t to wall-clock time at bpm.
func (t Ticks) Duration(bpm float64) time.Duration {
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	return time.Duration(float64(t) * float64(time.Minute) / (bpm * float64(PPQ)))
}
