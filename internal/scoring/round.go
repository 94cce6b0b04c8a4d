package scoring

import "math"

// round is half away from zero, so 72.5 -> 73 and -0.5 -> -1.
func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampFactor keeps unvalidated input inside [0,100].
func clampFactor(v float64) float64 {
	return clamp(v, 0, 100)
}

// finiteCost maps negative and non-finite costs to 0.
func finiteCost(c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return 0
	}
	return c
}

// addCost saturates at math.MaxFloat64 instead of overflowing to +Inf.
func addCost(total, c float64) float64 {
	sum := total + finiteCost(c)
	if math.IsInf(sum, 1) {
		return math.MaxFloat64
	}
	return sum
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
