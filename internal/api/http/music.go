package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-in-sound/internal/music"
	"github.com/i474232898/weather-in-sound/internal/synth"
	"github.com/i474232898/weather-in-sound/internal/transport"
	"github.com/i474232898/weather-in-sound/internal/voice"
	"github.com/i474232898/weather-in-sound/internal/weather"
)

type leadPreview struct {
	NoteCount     int            `json:"noteCount"`
	Octave        int            `json:"octave"`
	Transposition int            `json:"transposition"`
	Envelope      music.Envelope `json:"envelope"`
	DropChance    float64        `json:"dropChance"`
}

type bassPreview struct {
	Triad  []string     `json:"triad"`
	BPM    float64      `json:"bpm"`
	Reverb synth.Reverb `json:"reverb"`
	Chorus synth.Chorus `json:"chorus"`
}

type motifNote struct {
	Beat     float64 `json:"beat"`
	Note     string  `json:"note"`
	Duration float64 `json:"durationBeats"`
}

type preview struct {
	Condition     string                `json:"condition"`
	WindDirection weather.WindDirection `json:"windDirection"`
	Parameters    music.AudioParameters `json:"parameters"`
	Scale         *music.WeatherScale   `json:"scale"`
	Lead          leadPreview           `json:"lead"`
	Bass          bassPreview           `json:"bass"`
	Melody        []motifNote           `json:"melody"`
}

func buildPreview(snap weather.WeatherSnapshot) preview {
	params := music.MapWeatherToParameters(snap)
	scale := music.ScaleForWeather(snap)

	var triad []string
	for _, n := range voice.Triad(scale, params.Octave()) {
		triad = append(triad, n.Pitch)
	}

	motif := music.MotifFor(snap.Condition)
	melody := make([]motifNote, 0, len(motif.Events))
	for _, ev := range motif.Events {
		melody = append(melody, motifNote{
			Beat:     ticksToBeats(ev.At),
			Note:     ev.Note,
			Duration: ticksToBeats(ev.Duration),
		})
	}

	return preview{
		Condition:     snap.Condition.Label(),
		WindDirection: snap.WindDirection,
		Parameters:    params,
		Scale:         scale,
		Lead: leadPreview{
			NoteCount:     voice.NoteCount(snap.WindSpeed),
			Octave:        params.Octave(),
			Transposition: snap.WindDirection.Transposition,
			Envelope:      music.EnvelopeForLocation(snap.Location.Lat, snap.Location.Lon),
			DropChance:    voice.DropChance(snap.AirPressure),
		},
		Bass: bassPreview{
			Triad:  triad,
			BPM:    params.BPM * 0.5,
			Reverb: synth.Reverb{Decay: params.ReverbDecay * 1.5, Wet: params.ReverbWet * 0.8},
			Chorus: voice.ChorusFor(snap.WindSpeed),
		},
		Melody: melody,
	}
}

func ticksToBeats(t transport.Ticks) float64 {
	return float64(t) / float64(transport.PPQ)
}

func registerMusicRoutes(v1 fiber.Router) {
	v1.Post("/music/preview", func(c *fiber.Ctx) error {
		var req snapshotRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		return c.JSON(buildPreview(req.toSnapshot()))
	})

	v1.Get("/music/scales", func(c *fiber.Ctx) error {
		scales := make(map[weather.Condition]*music.WeatherScale, len(weather.Conditions))
		for _, cond := range weather.Conditions {
			scales[cond] = music.ScaleFor(cond)
		}
		return c.JSON(scales)
	})
}
