package history

import "math"

// DailyClose is one historical daily closing value.
type DailyClose struct {
	Date  string
	Close float64
}

// Valid reports whether the close can drive a price.
func (d DailyClose) Valid() bool {
	return !math.IsNaN(d.Close) && !math.IsInf(d.Close, 0) && d.Close != 0
}

// Series is an ordered, chronological sequence of daily closes.
type Series []DailyClose

// Usable reports whether the series has enough entries to produce variation.
func (s Series) Usable() bool { return len(s) >= 2 }

// Closes returns the close values in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, d := range s {
		out[i] = d.Close
	}
	return out
}

// Clean returns a copy of s without entries whose close is missing or not a number.
func Clean(s Series) Series {
	out := make(Series, 0, len(s))
	for _, d := range s {
		if d.Valid() {
			out = append(out, d)
		}
	}
	return out
}
