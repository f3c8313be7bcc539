package music

import "math"

// Envelope is an ADSR shape. Attack, decay and release are in seconds;
// sustain is a level in [0, 1].
type Envelope struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// EnvelopeForLocation shapes notes by geography. Latitude lengthens attack
// and release toward the poles; longitude trades decay against sustain.
func EnvelopeForLocation(lat, lon float64) Envelope {
	la := math.Min(math.Abs(lat), 180) / 180
	lo := math.Min(math.Abs(lon), 180) / 180
	return Envelope{
		Attack:  0.1 + la*0.6,
		Decay:   0.1 + lo*0.3,
		Sustain: 0.3 + (1-lo)*0.4,
		Release: 0.2 + la*0.8,
	}
}
