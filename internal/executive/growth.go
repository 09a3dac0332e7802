package executive

// growthPct computes the period-over-period delta in percent. A zero prior
// period maps to 100 when the current period produced revenue and 0 when both
// are zero, so the result is never NaN or infinite.
func growthPct(current, previous float64) float64 {
	if previous > 0 {
		return (current - previous) / previous * 100
	}
	if current > 0 {
		return 100
	}
	return 0
}

// ratioPct expresses part as a percentage of whole, 0 when whole is zero.
func ratioPct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// safeDiv divides sum by count, 0 when count is zero.
func safeDiv(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
