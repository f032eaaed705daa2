package hours

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CalculateHoursWorked returns (whole minutes between start and end - breakMinutes) / 60.
//
// The result is not clamped: an end before start or a break longer than the interval yields a
// negative value that validation above this function rejects.
func CalculateHoursWorked(start, end time.Time, breakMinutes int) float64 {
	minutes := int64(end.Sub(start) / time.Minute)
	return float64(minutes-int64(breakMinutes)) / 60
}

// FiniteOrZero maps NaN and ±Inf to 0 so a single corrupt row cannot poison a total.
func FiniteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SumHours adds the finite HoursWorked of all entries.
func SumHours(entries []Entry) float64 {
	total := 0.0
	for _, e := range entries {
		total += FiniteOrZero(e.HoursWorked)
	}
	return total
}

// RoundHours rounds to 2 decimals, half away from zero. Use it for display only.
func RoundHours(v float64) float64 {
	rounded, _ := decimal.NewFromFloat(FiniteOrZero(v)).Round(2).Float64()
	return rounded
}
