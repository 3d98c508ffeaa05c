// Package aggregate implements the pure reduction kernels a query's agg list
// applies to a gathered value slice. Every kernel returns (value, ok) rather
// than panicking or sentinel-NaN'ing on empty input: Sum of an empty slice
// is (0, true) since zero is a valid identity element for a sum, while
// every other kernel reports (_, false) on empty input because no identity
// element exists for min/max/avg/median.
package aggregate

import "slices"

// Sum returns the arithmetic sum of vals. An empty slice sums to 0, which is
// reported as ok since 0 is sum's identity element.
func Sum(vals []float64) (float64, bool) {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total, true
}

// Min returns the smallest value in vals. An empty slice has no minimum.
func Min(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}

// Max returns the largest value in vals. An empty slice has no maximum.
func Max(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

// Avg returns the arithmetic mean of vals. An empty slice has no mean.
func Avg(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sum, _ := Sum(vals)
	return sum / float64(len(vals)), true
}

// Median returns the median of vals, sorting a copy so the caller's slice is
// left untouched. NaNs sort last so they can't silently split an otherwise
// well-ordered slice down the middle. An empty slice has no median.
func Median(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sorted := slices.Clone(vals)
	slices.SortFunc(sorted, func(a, b float64) int {
		switch {
		case a != a: // a is NaN
			if b != b {
				return 0
			}
			return 1
		case b != b: // b is NaN
			return -1
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}
