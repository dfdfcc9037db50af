package aggregator

import (
	"QuoteTrack/internal/model"
)

// Window folds one symbol's ordered bar sequence into rolling statistics:
// lifetime min/max, a trailing simple moving average over the last N
// closes, and the first→last percentage change. Every update is O(1); the
// trailing sum is adjusted on eviction, never recomputed by rescan.
//
// A Window is owned by the goroutine driving that symbol's sequence and
// must not be shared.
type Window struct {
	symbol   model.Symbol
	capacity int

	// ring holds the trailing closes; head indexes the oldest element
	// once the ring is full.
	ring []float64
	head int
	size int
	sum  float64

	min   float64
	max   float64
	first float64
	last  float64
	count int
}

// New creates an empty Window for symbol with the given trailing-average
// capacity. Capacities below 1 are clamped to 1.
func New(symbol model.Symbol, capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		symbol:   symbol,
		capacity: capacity,
		ring:     make([]float64, 0, capacity),
	}
}

// Apply folds one bar into the window. Bars must arrive in the order the
// source produced them (time order within the symbol).
func (w *Window) Apply(bar model.PriceBar) {
	close := bar.Close

	if w.count == 0 {
		w.min = close
		w.max = close
		w.first = close
	} else {
		if close < w.min {
			w.min = close
		}
		if close > w.max {
			w.max = close
		}
	}

	if w.size < w.capacity {
		w.ring = append(w.ring, close)
		w.size++
	} else {
		// Full: evict the oldest close and take its contribution out of
		// the running sum before adding the new one.
		w.sum -= w.ring[w.head]
		w.ring[w.head] = close
		w.head = (w.head + 1) % w.capacity
	}
	w.sum += close

	w.last = close
	w.count++
}

// Symbol returns the symbol this window accumulates.
func (w *Window) Symbol() model.Symbol { return w.symbol }

// Count returns the number of bars folded so far.
func (w *Window) Count() int { return w.count }

// WindowSum returns the running sum of the trailing closes.
func (w *Window) WindowSum() float64 { return w.sum }

// Summary derives a read-only snapshot of the current state. It never
// mutates the window and is safe to call at any point, including before
// the first bar: derived fields are then the explicit undefined marker.
func (w *Window) Summary() model.Summary {
	s := model.Summary{
		Symbol:        w.symbol,
		Min:           model.Undefined(),
		Max:           model.Undefined(),
		MovingAverage: model.Undefined(),
		LastClose:     model.Undefined(),
		PctChange:     model.Undefined(),
		SampleCount:   w.count,
	}
	if w.count == 0 {
		return s
	}

	s.Min = w.min
	s.Max = w.max
	s.LastClose = w.last
	s.MovingAverage = w.sum / float64(w.size)

	if w.count >= 2 && w.first != 0 {
		s.PctChange = (w.last - w.first) / w.first
	}
	return s
}
