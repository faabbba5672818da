package core

// -----------------------------------------------------------------------------

// PreviousClose recovers the reference price from a last price and its change.
func PreviousClose(lastPrice, change float64) float64 {
	return lastPrice - change
}

// -----------------------------------------------------------------------------

// CalculateChangePercent returns the change from previous to current in percent.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous * 100
}

// -----------------------------------------------------------------------------

// CalculateAnomalyRatio compares a traded quantity with the average quantity.
func CalculateAnomalyRatio(currentVol, avgVol float64) float64 {
	if avgVol <= 0 {
		if currentVol == 0 {
			return 1.0
		}
		return currentVol
	}
	return currentVol / avgVol
}

// -----------------------------------------------------------------------------

// DayRangePosition places lastPrice within [low, high] as 0..1. A flat range is 0.5.
func DayRangePosition(lastPrice, low, high float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (lastPrice - low) / (high - low)
	switch {
	case pos < 0:
		return 0
	case pos > 1:
		return 1
	}
	return pos
}
