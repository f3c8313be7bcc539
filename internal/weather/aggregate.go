package weather

import (
	"math"
	"time"
)

// AggregateReadings combines multiple provider readings into a single WeatherSnapshot.
// Numeric fields are averaged and rounded the way the sound engine expects
// (whole degrees, percent and km/h); wind bearings use a circular mean;
// conditions are selected by majority (earliest reading wins a tie).
func AggregateReadings(loc Location, readings []ProviderReading) WeatherSnapshot {
	if len(readings) == 0 {
		return WeatherSnapshot{
			Location:      loc,
			Timestamp:     time.Now().UTC(),
			Condition:     ConditionUnknown,
			WindDirection: WindDirectionFromDegrees(0),
		}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPressure float64
		nPressure   int
		bearings    []float64
	)

	conditionCounts := make(map[Condition]int)
	conditionOrder := make([]Condition, 0, len(readings))
	providers := make([]ProviderContribution, 0, len(readings))
	var newestTS time.Time

	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedKmh
		if r.PressureHpa > 0 {
			sumPressure += r.PressureHpa
			nPressure++
		}
		if r.HasWindDirection {
			bearings = append(bearings, r.WindDirectionDeg)
		}

		if _, seen := conditionCounts[r.Condition]; !seen {
			conditionOrder = append(conditionOrder, r.Condition)
		}
		conditionCounts[r.Condition]++

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
		})
	}

	n := float64(len(readings))

	// Pick majority condition.
	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range conditionOrder {
		if count := conditionCounts[cond]; count > bestCount {
			bestCount = count
			bestCond = cond
		}
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	var pressure float64
	if nPressure > 0 {
		pressure = math.Round(sumPressure / float64(nPressure))
	}

	return WeatherSnapshot{
		Location:      loc,
		Timestamp:     newestTS,
		Temperature:   int(math.Round(sumTemp / n)),
		Humidity:      math.Round(sumHumidity / n),
		WindSpeed:     math.Round(sumWind / n),
		WindDirection: WindDirectionFromDegrees(math.Round(meanBearing(bearings))),
		AirPressure:   pressure,
		Condition:     bestCond,
		Providers:     providers,
	}
}
