package appraisal

import (
	"math"
	"sort"
	"time"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampScore(v float64) float64 { return clamp(v, 0, 100) }

// monthsBetween counts whole months from a to b, negative when b is before a.
func monthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}

func yearsOld(yearBuilt int, asOf time.Time) int {
	if yearBuilt <= 0 {
		return 0
	}
	age := asOf.Year() - yearBuilt
	if age < 0 {
		return 0
	}
	return age
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

func dispersion(values []float64) DispersionStats {
	m := mean(values)
	sd := stdDev(values)
	cv := 0.0
	if m != 0 {
		cv = sd / m
	}
	return DispersionStats{Mean: m, Median: median(values), StdDev: sd, CoefficientOfVariation: cv}
}

// roundToDenomination rounds a value to a denomination appropriate to its
// magnitude: nearest $100k above $10M, $10k above $1M, $1k above $100k,
// $500 above $10k, else $100.
func roundToDenomination(v float64) float64 {
	abs := math.Abs(v)
	var unit float64
	switch {
	case abs > 10_000_000:
		unit = 100_000
	case abs > 1_000_000:
		unit = 10_000
	case abs > 100_000:
		unit = 1_000
	case abs > 10_000:
		unit = 500
	default:
		unit = 100
	}
	return math.Round(v/unit) * unit
}

func qualityLabel(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 80:
		return ConfidenceHigh
	case confidence >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
