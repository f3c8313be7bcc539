package weather

// ConditionFromCode maps a WMO weather interpretation code (as reported by
// Open-Meteo) to a condition. Codes without a mapping resolve to fallback,
// which is configurable because historical clients disagreed between
// "Overcast" and "Unknown".
func ConditionFromCode(code int, fallback Condition) Condition {
	switch code {
	case 0:
		return ConditionSunny
	case 1, 2:
		return ConditionCloudy
	case 3:
		return ConditionOvercast
	case 61, 63:
		return ConditionRainy
	case 71:
		return ConditionSnowy
	case 80:
		return ConditionWindy
	default:
		if fallback == "" {
			return ConditionOvercast
		}
		return fallback
	}
}
