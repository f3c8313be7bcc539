package music

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var pitchPattern = regexp.MustCompile(`^([A-Ga-g])([#b]?)(-?\d+)$`)

var trailingOctave = regexp.MustCompile(`-?\d+$`)

var naturalClasses = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Pitch is a pitch class (0 = C) in a scientific-pitch octave (C4 = MIDI 60).
type Pitch struct {
	Class  int
	Octave int
}

// ParsePitch parses names such as "C4", "Eb5", "F#3" or "A-1".
func ParsePitch(s string) (Pitch, error) {
	m := pitchPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Pitch{}, fmt.Errorf("invalid note %q", s)
	}
	class := naturalClasses[strings.ToUpper(m[1])[0]]
	switch m[2] {
	case "#":
		class++
	case "b":
		class--
	}
	octave, _ := strconv.Atoi(m[3])

	// Cb and B# cross the octave boundary.
	if class < 0 {
		class += 12
		octave--
	} else if class > 11 {
		class -= 12
		octave++
	}
	return Pitch{Class: class, Octave: octave}, nil
}

// PitchFromMIDI converts a MIDI note number to a pitch.
func PitchFromMIDI(n int) Pitch {
	octave := int(math.Floor(float64(n)/12)) - 1
	class := n - (octave+1)*12
	return Pitch{Class: class, Octave: octave}
}

// MIDI returns the MIDI note number.
func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + p.Class
}

// String spells the pitch with sharps.
func (p Pitch) String() string {
	return sharpNames[p.Class] + strconv.Itoa(p.Octave)
}

// Frequency returns the equal-tempered frequency with A4 = 440 Hz.
func (p Pitch) Frequency() float64 {
	return MIDIFrequency(p.MIDI())
}

// MIDIFrequency returns the frequency in Hz of a MIDI note number.
func MIDIFrequency(n int) float64 {
	return 440.0 * math.Pow(2, float64(n-69)/12)
}

// WithOctave replaces any trailing octave number on note with octave.
// "E" and "E5" both become "E3" for octave 3.
func WithOctave(note string, octave int) string {
	if note == "" {
		return note
	}
	return trailingOctave.ReplaceAllString(note, "") + strconv.Itoa(octave)
}

// Transpose shifts note by semitones. Strings that are not valid note
// names are returned unchanged so a bad entry cannot stop a running loop.
func Transpose(note string, semitones int) string {
	p, err := ParsePitch(note)
	if err != nil {
		return note
	}
	if semitones == 0 {
		return note
	}
	return PitchFromMIDI(p.MIDI() + semitones).String()
}
