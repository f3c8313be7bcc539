package music

import "github.com/i474232898/weather-in-sound/internal/weather"

// Waveform names an oscillator shape.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveTriangle Waveform = "triangle"
	WaveSquare   Waveform = "square"
	WaveSawtooth Waveform = "sawtooth"
)

// WeatherScale is the pitch material and timbre for one condition.
type WeatherScale struct {
	Notes       []string `json:"notes"`
	MIDINotes   []int    `json:"midiNotes"`
	Oscillator  Waveform `json:"oscillator"`
	Description string   `json:"description"`
}

var sunnyScale = &WeatherScale{
	Notes:       []string{"C", "E", "G", "A", "C", "E", "G", "A"},
	MIDINotes:   []int{60, 64, 67, 69, 72, 76, 79, 81},
	Oscillator:  WaveSine,
	Description: "Major scale with added 6th - bright and optimistic",
}

var weatherScales = map[weather.Condition]*WeatherScale{
	weather.ConditionSunny: sunnyScale,
	weather.ConditionCloudy: {
		Notes:       []string{"C", "Eb", "F", "G", "Bb", "C", "Eb", "F"},
		MIDINotes:   []int{60, 63, 65, 67, 70, 72, 75, 77},
		Oscillator:  WaveTriangle,
		Description: "Minor scale with flat 7th - mellow and contemplative",
	},
	weather.ConditionOvercast: {
		Notes:       []string{"C", "D", "Eb", "G", "Ab", "C", "D", "Eb"},
		MIDINotes:   []int{60, 62, 63, 67, 68, 72, 74, 75},
		Oscillator:  WaveSquare,
		Description: "Phrygian mode - dark and mysterious",
	},
	weather.ConditionRainy: {
		Notes:       []string{"C", "Eb", "F", "G", "Ab", "C", "Eb", "F"},
		MIDINotes:   []int{60, 63, 65, 67, 68, 72, 75, 77},
		Oscillator:  WaveSawtooth,
		Description: "Minor scale with flat 6th - melancholic",
	},
	weather.ConditionSnowy: {
		Notes:       []string{"C", "D", "F", "G", "A", "C", "D", "F"},
		MIDINotes:   []int{60, 62, 65, 67, 69, 72, 74, 77},
		Oscillator:  WaveSine,
		Description: "Pentatonic scale - peaceful and floating",
	},
	weather.ConditionWindy: {
		Notes:       []string{"C", "D", "E", "F#", "G#", "A#", "C", "D"},
		MIDINotes:   []int{60, 62, 64, 66, 68, 70, 72, 74},
		Oscillator:  WaveSawtooth,
		Description: "Whole tone scale - swirling and unstable",
	},
}

// ScaleFor returns the scale for cond. Unknown conditions get the sunny
// scale (the same pointer, not a copy). Callers must not modify the result.
func ScaleFor(cond weather.Condition) *WeatherScale {
	if s, ok := weatherScales[cond]; ok {
		return s
	}
	return sunnyScale
}

// ScaleForName looks up a scale by a free-form condition name.
func ScaleForName(name string) *WeatherScale {
	cond, _ := weather.ParseCondition(name)
	return ScaleFor(cond)
}
