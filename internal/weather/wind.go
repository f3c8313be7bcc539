package weather

import "math"

// WindDirection is a compass sector derived from a wind bearing together with
// the semitone shift it applies to generated notes.
type WindDirection struct {
	Degrees       float64 `json:"degrees"`
	Label         string  `json:"label"`
	Transposition int     `json:"transposition"`
}

type windSector struct {
	from          float64 // inclusive
	to            float64 // exclusive
	label         string
	transposition int
}

// Sectors are 45° wide and centered on the compass points. North wraps
// around 0° and is handled separately.
var windSectors = []windSector{
	{22.5, 67.5, "North-East", 2},
	{67.5, 112.5, "East", 4},
	{112.5, 157.5, "South-East", 2},
	{157.5, 202.5, "South", -3},
	{202.5, 247.5, "South-West", -2},
	{247.5, 292.5, "West", -4},
	{292.5, 337.5, "North-West", -1},
}

// WindDirectionFromDegrees maps a bearing in degrees to its compass sector.
// Any finite bearing is accepted; values outside [0, 360) are wrapped.
func WindDirectionFromDegrees(deg float64) WindDirection {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return WindDirection{Label: "North"}
	}
	norm := math.Mod(deg, 360)
	if norm < 0 {
		norm += 360
	}
	for _, s := range windSectors {
		if norm >= s.from && norm < s.to {
			return WindDirection{Degrees: deg, Label: s.label, Transposition: s.transposition}
		}
	}
	return WindDirection{Degrees: deg, Label: "North", Transposition: 0}
}

// meanBearing averages bearings on the unit circle so that 350° and 10°
// average to 0° rather than 180°.
func meanBearing(degs []float64) float64 {
	if len(degs) == 0 {
		return 0
	}
	var sx, sy float64
	for _, d := range degs {
		r := d * math.Pi / 180
		sx += math.Cos(r)
		sy += math.Sin(r)
	}
	mean := math.Atan2(sy, sx) * 180 / math.Pi
	if mean < 0 {
		mean += 360
	}
	return mean
}
