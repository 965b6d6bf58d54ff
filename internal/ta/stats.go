// Package ta holds the small price statistics shown next to the sentiment
// metrics.
package ta

import "math"

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// Returns gives the simple return between consecutive closes. A zero close
// yields a zero return for the following step.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out[i-1] = closes[i]/closes[i-1] - 1
	}
	return out
}

// PercentChange is the change from the first to the last close in percent.
// ok is false with fewer than two closes or a zero first close.
func PercentChange(closes []float64) (float64, bool) {
	if len(closes) < 2 || closes[0] == 0 {
		return 0, false
	}
	return (closes[len(closes)-1]/closes[0] - 1) * 100, true
}

// Volatility is the standard deviation of daily returns in percent.
func Volatility(closes []float64) float64 {
	returns := Returns(closes)
	if len(returns) == 0 {
		return 0
	}
	_, std := MeanStd(returns)
	return std * 100
}
