// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val float64) float64 {
	return RoundTo(val, constants.PricePlaces)
}

// RoundTo rounds a value half away from zero to the given number of decimal
// places. The decimal representation avoids binary artefacts such as
// 1.005 rounding down.
func RoundTo(val float64, places int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	f, _ := decimal.NewFromFloat(val).Round(places).Float64()
	return f
}

// RoundProbability rounds a probability to the reported precision.
func RoundProbability(p float64) float64 {
	return RoundTo(p, constants.ProbabilityPlaces)
}

// SafeRatio returns the relative change (num - den) / den, or 0 when den is
// not positive. Margins over cost are SafeRatio(price, cogs).
func SafeRatio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return (num - den) / den
}

// Clamp bounds value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Linspace returns n evenly spaced values over [start, stop]. The last value
// is exactly stop; n <= 0 yields nil and n == 1 yields start alone.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	step := (stop - start) / float64(n-1)
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	values[n-1] = stop
	return values
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
