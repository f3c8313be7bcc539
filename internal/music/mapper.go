package music

import (
	"math"

	"github.com/i474232898/weather-in-sound/internal/common"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// AudioParameters are the global controls derived from one snapshot.
type AudioParameters struct {
	ReverbWet   float64 `json:"reverbWet"`
	ReverbDecay float64 `json:"reverbDecay"`
	BPM         float64 `json:"bpm"`
	BaseOctave  float64 `json:"baseOctave"`
}

// Octave returns BaseOctave as an int for note spelling.
func (p AudioParameters) Octave() int {
	return int(p.BaseOctave)
}

// MapWeatherToParameters derives audio parameters from a snapshot.
// Humidity drives reverb, wind drives tempo and temperature picks the octave.
func MapWeatherToParameters(snap weather.WeatherSnapshot) AudioParameters {
	humidity := finite(snap.Humidity)
	wind := finite(snap.WindSpeed)

	return AudioParameters{
		ReverbWet:   common.Clamp(humidity/100, 0.2, 0.8),
		ReverbDecay: common.Clamp(humidity/10, 1, 8),
		BPM:         common.Clamp(60+wind*2, 60, 180),
		BaseOctave:  math.Round(2 + ((float64(snap.Temperature)+20)/60)*4),
	}
}

// ScaleForWeather returns the scale for the snapshot's condition.
func ScaleForWeather(snap weather.WeatherSnapshot) *WeatherScale {
	return ScaleFor(snap.Condition)
}

// finite maps NaN to zero so clamping always lands inside its bounds.
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
