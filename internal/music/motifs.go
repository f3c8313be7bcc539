package music

import (
	"github.com/i474232898/weather-in-sound/internal/transport"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

// MotifLength is the loop length of every motif.
const MotifLength = 2 * transport.Measure

// MotifEvent is one note of a motif.
type MotifEvent struct {
	At       transport.Ticks
	Note     string
	Duration transport.Ticks
}

// Motif is a fixed melodic fragment tied to a condition.
type Motif struct {
	Condition weather.Condition
	Events    []MotifEvent
}

type motifRow struct {
	at, note, dur string
}

func buildMotif(cond weather.Condition, rows []motifRow) *Motif {
	m := &Motif{Condition: cond, Events: make([]MotifEvent, 0, len(rows))}
	for _, r := range rows {
		m.Events = append(m.Events, MotifEvent{
			At:       transport.MustPosition(r.at),
			Note:     r.note,
			Duration: transport.MustSubdivision(r.dur),
		})
	}
	return m
}

var sunnyMotif = buildMotif(weather.ConditionSunny, []motifRow{
	{"0:0:0", "C5", "16n"},
	{"0:0:1", "E5", "16n"},
	{"0:0:2", "G5", "16n"},
	{"0:0:3", "A5", "16n"},
	{"0:1:0", "E5", "16n"},
	{"0:1:1", "C5", "16n"},
	{"0:1:2", "G5", "8n"},
})

var motifs = map[weather.Condition]*Motif{
	weather.ConditionSunny: sunnyMotif,
	weather.ConditionRainy: buildMotif(weather.ConditionRainy, []motifRow{
		{"0:0:0", "C5", "16n"},
		{"0:0:1", "Eb5", "16n"},
		{"0:0:2", "F5", "16n"},
		{"0:0:3", "G5", "16n"},
		{"0:1:0", "Ab5", "16n"},
		{"0:1:1", "F5", "16n"},
		{"0:1:2", "C5", "8n"},
	}),
	weather.ConditionSnowy: buildMotif(weather.ConditionSnowy, []motifRow{
		{"0:0:0", "C5", "16n"},
		{"0:0:1", "D5", "16n"},
		{"0:0:2", "F5", "16n"},
		{"0:0:3", "A5", "16n"},
		{"0:1:0", "D5", "16n"},
		{"0:1:1", "F5", "16n"},
		{"0:1:2", "C5", "8n"},
	}),
	weather.ConditionWindy: buildMotif(weather.ConditionWindy, []motifRow{
		{"0:0:0", "C5", "32n"},
		{"0:0:0.5", "D5", "32n"},
		{"0:0:1", "E5", "32n"},
		{"0:0:1.5", "F#5", "32n"},
		{"0:0:2", "G#5", "32n"},
		{"0:0:2.5", "A#5", "32n"},
		{"0:0:3", "C5", "16n"},
		{"0:1:0", "D5", "16n"},
		{"0:1:2", "E5", "8n"},
	}),
	weather.ConditionOvercast: buildMotif(weather.ConditionOvercast, []motifRow{
		{"0:0:0", "C5", "16n"},
		{"0:0:1", "D5", "16n"},
		{"0:0:2", "Eb5", "16n"},
		{"0:0:3", "G5", "16n"},
		{"0:1:0", "Ab5", "16n"},
		{"0:1:1", "C5", "16n"},
		{"0:1:2", "D5", "8n"},
	}),
	weather.ConditionCloudy: buildMotif(weather.ConditionCloudy, []motifRow{
		{"0:0:0", "C5", "16n"},
		{"0:0:1", "Eb5", "16n"},
		{"0:0:2", "F5", "16n"},
		{"0:0:3", "Bb5", "16n"},
		{"0:1:0", "C5", "16n"},
		{"0:1:1", "Eb5", "16n"},
		{"0:1:2", "F5", "8n"},
	}),
}

// MotifFor returns the motif for cond, falling back to the sunny motif.
func MotifFor(cond weather.Condition) *Motif {
	if m, ok := motifs[cond]; ok {
		return m
	}
	return sunnyMotif
}
