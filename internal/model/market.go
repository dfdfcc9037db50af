package model

import "time"

// PriceBar is a single daily price observation: the closing price of one
// symbol on one day. Bars are ordered by Time within a symbol's sequence;
// no ordering holds across symbols.
type PriceBar struct {
	Symbol Symbol
	Time   time.Time
	Close  float64
}

// FetchOutcome is the terminal result of fetching one symbol's history.
// Err != nil marks a failure; Bars is then empty. Exactly one outcome is
// produced per fetch unit per run.
type FetchOutcome struct {
	Symbol Symbol
	Bars   []PriceBar
	Err    error
}

// Failed reports whether the fetch unit ended in failure.
func (o FetchOutcome) Failed() bool { return o.Err != nil }
