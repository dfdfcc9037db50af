package model

import "math"

// Summary is a read-only snapshot of one symbol's rolling statistics.
//
// Derived fields that are mathematically undefined carry NaN:
// MovingAverage when no bar has been seen, PctChange when fewer than two
// bars have been seen or the first close is zero. Consumers render NaN as
// an explicit "no data" marker; it never propagates as a fault.
type Summary struct {
	Symbol        Symbol
	Min           float64
	Max           float64
	MovingAverage float64
	LastClose     float64
	PctChange     float64
	SampleCount   int
}

// Defined reports whether v carries an actual value rather than the
// undefined marker.
func Defined(v float64) bool { return !math.IsNaN(v) }

// Undefined is the explicit marker for derived values that cannot be
// computed (division by zero, empty history).
func Undefined() float64 { return math.NaN() }
