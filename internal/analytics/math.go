package analytics

import "math"

// safeDiv returns 0 instead of NaN or Inf.
func safeDiv(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func safePercent(part, total float64) float64 {
	return safeDiv(part, total) * 100
}

func almostZero(v float64) bool {
	return math.Abs(v) < 0.0001
}

// growthPercent is the change from base to current as a percentage. A zero
// base yields 100 when something was sold and 0 otherwise.
func growthPercent(base, current float64) float64 {
	if almostZero(base) {
		if almostZero(current) {
			return 0
		}
		return 100
	}
	return (current - base) / math.Abs(base) * 100
}
