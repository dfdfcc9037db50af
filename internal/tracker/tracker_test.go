package tracker

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"QuoteTrack/internal/collector"
	"QuoteTrack/internal/model"
)

var since = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

// captureEmitter collects notifications in arrival order.
type captureEmitter struct {
	mu        sync.Mutex
	summaries []model.Summary
	failures  map[model.Symbol]string
	closed    bool
}

func newCaptureEmitter() *captureEmitter {
	return &captureEmitter{failures: map[model.Symbol]string{}}
}

func (c *captureEmitter) EmitSummary(s model.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries = append(c.summaries, s)
	return nil
}

func (c *captureEmitter) EmitFailure(symbol model.Symbol, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[symbol] = reason
	return nil
}

func (c *captureEmitter) Close() error {
	c.closed = true
	return nil
}

func (c *captureEmitter) summaryFor(t *testing.T, symbol model.Symbol) model.Summary {
	t.Helper()
	for _, s := range c.summaries {
		if s.Symbol == symbol {
			return s
		}
	}
	t.Fatalf("no summary for %s", symbol)
	return model.Summary{}
}

// captureRecorder remembers what was persisted and under which run ID.
type captureRecorder struct {
	mu        sync.Mutex
	runIDs    map[string]bool
	summaries int
	failures  int
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{runIDs: map[string]bool{}}
}

func (c *captureRecorder) RecordSummary(runID string, _ model.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runIDs[runID] = true
	c.summaries++
	return nil
}

func (c *captureRecorder) RecordFailure(runID string, _ model.Symbol, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runIDs[runID] = true
	c.failures++
	return nil
}

func (c *captureRecorder) Close() error { return nil }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// approxOrBothUndefined treats two undefined values as equal so derived
// fields that are legitimately NaN can still be compared.
func approxOrBothUndefined(a, b float64) bool {
	if !model.Defined(a) || !model.Defined(b) {
		return !model.Defined(a) && !model.Defined(b)
	}
	return approx(a, b)
}

// failingEmitter rejects every notification.
type failingEmitter struct{ err error }

func (f *failingEmitter) EmitSummary(model.Summary) error        { return f.err }
func (f *failingEmitter) EmitFailure(model.Symbol, string) error { return f.err }
func (f *failingEmitter) Close() error                           { return nil }

func TestRun_SummariesAndFailureIsolation(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Bars: map[model.Symbol][]model.PriceBar{
			"AAA": collector.BarsFromCloses("AAA", since, 10, 12, 11),
		},
		Errs: map[model.Symbol]error{
			"BBB": errors.New("upstream unavailable"),
		},
	}
	em := newCaptureEmitter()
	rec := newCaptureRecorder()
	tr := New(collector.NewPool(fetcher, 1), 30, em, rec)

	if err := tr.Run(context.Background(), []model.Symbol{"AAA", "BBB"}, since); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(em.summaries) != 1 || len(em.failures) != 1 {
		t.Fatalf("got %d summaries, %d failures; want 1 and 1", len(em.summaries), len(em.failures))
	}

	s := em.summaryFor(t, "AAA")
	if !approx(s.Min, 10) || !approx(s.Max, 12) || !approx(s.LastClose, 11) {
		t.Errorf("AAA min/max/last = %v/%v/%v, want 10/12/11", s.Min, s.Max, s.LastClose)
	}
	if !approx(s.PctChange, 0.10) {
		t.Errorf("AAA pct change = %v, want 0.10", s.PctChange)
	}
	if !approx(s.MovingAverage, 11) {
		t.Errorf("AAA moving average = %v, want 11", s.MovingAverage)
	}
	if s.SampleCount != 3 {
		t.Errorf("AAA sample count = %d, want 3", s.SampleCount)
	}

	if reason := em.failures["BBB"]; reason != "upstream unavailable" {
		t.Errorf("BBB failure reason = %q", reason)
	}

	if rec.summaries != 1 || rec.failures != 1 {
		t.Errorf("recorder saw %d summaries, %d failures; want 1 and 1", rec.summaries, rec.failures)
	}
	if len(rec.runIDs) != 1 {
		t.Errorf("records span %d run IDs, want a single one", len(rec.runIDs))
	}
}

func TestRun_ResultsIndependentOfConcurrency(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Bars: map[model.Symbol][]model.PriceBar{
			"AAA": collector.BarsFromCloses("AAA", since, 10, 12, 11),
			"BBB": collector.BarsFromCloses("BBB", since, 5, 4, 6, 7),
			"CCC": collector.BarsFromCloses("CCC", since, 100),
		},
		Delay: time.Millisecond,
	}
	symbols := []model.Symbol{"AAA", "BBB", "CCC"}

	var runs [][]model.Summary
	for _, limit := range []int{1, 2} {
		em := newCaptureEmitter()
		tr := New(collector.NewPool(fetcher, limit), 3, em, nil)
		if err := tr.Run(context.Background(), symbols, since); err != nil {
			t.Fatalf("Run with limit %d: %v", limit, err)
		}
		got := append([]model.Summary(nil), em.summaries...)
		sort.Slice(got, func(i, j int) bool { return got[i].Symbol < got[j].Symbol })
		runs = append(runs, got)
	}

	if len(runs[0]) != 3 || len(runs[1]) != 3 {
		t.Fatalf("got %d and %d summaries, want 3 each", len(runs[0]), len(runs[1]))
	}
	for i := range runs[0] {
		a, b := runs[0][i], runs[1][i]
		if a.Symbol != b.Symbol || !approx(a.Min, b.Min) || !approx(a.Max, b.Max) ||
			!approx(a.MovingAverage, b.MovingAverage) || !approx(a.LastClose, b.LastClose) ||
			!approxOrBothUndefined(a.PctChange, b.PctChange) ||
			a.SampleCount != b.SampleCount {
			t.Errorf("summaries for %s differ across concurrency limits: %+v vs %+v", a.Symbol, a, b)
		}
	}
}

func TestRun_ZeroBarsYieldsExplicitSummary(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Bars: map[model.Symbol][]model.PriceBar{
			"ZZZ": nil,
		},
	}
	em := newCaptureEmitter()
	tr := New(collector.NewPool(fetcher, 2), 30, em, nil)

	if err := tr.Run(context.Background(), []model.Symbol{"ZZZ"}, since); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(em.summaries) != 1 || len(em.failures) != 0 {
		t.Fatalf("got %d summaries, %d failures; want an empty summary, no failure", len(em.summaries), len(em.failures))
	}
	s := em.summaries[0]
	if s.SampleCount != 0 {
		t.Errorf("sample count = %d, want 0", s.SampleCount)
	}
	for name, v := range map[string]float64{
		"min": s.Min, "max": s.Max, "avg": s.MovingAverage,
		"last": s.LastClose, "pct": s.PctChange,
	} {
		if model.Defined(v) {
			t.Errorf("%s = %v, want undefined", name, v)
		}
	}
}

func TestRun_DuplicateSymbolsAreIndependentUnits(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Bars: map[model.Symbol][]model.PriceBar{
			"AAA": collector.BarsFromCloses("AAA", since, 10, 12, 11),
		},
	}
	em := newCaptureEmitter()
	tr := New(collector.NewPool(fetcher, 2), 30, em, nil)

	if err := tr.Run(context.Background(), []model.Symbol{"AAA", "AAA"}, since); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(em.summaries) != 2 {
		t.Fatalf("got %d summaries, want one per requested unit", len(em.summaries))
	}
	for _, s := range em.summaries {
		if s.SampleCount != 3 {
			t.Errorf("duplicate unit sample count = %d, want 3", s.SampleCount)
		}
	}
}

func TestRun_EmitterErrorReleasesPoolWorkers(t *testing.T) {
	bars := map[model.Symbol][]model.PriceBar{}
	var symbols []model.Symbol
	for _, s := range []model.Symbol{"A", "B", "C", "D", "E", "F"} {
		bars[s] = collector.BarsFromCloses(s, since, 1, 2)
		symbols = append(symbols, s)
	}
	fetcher := &collector.MockFetcher{Bars: bars, Delay: 5 * time.Millisecond}
	tr := New(collector.NewPool(fetcher, 2), 30, &failingEmitter{err: errors.New("sink unavailable")}, nil)

	before := runtime.NumGoroutine()
	err := tr.Run(context.Background(), symbols, since)
	if err == nil || !strings.Contains(err.Error(), "sink unavailable") {
		t.Fatalf("Run error = %v, want the emitter error surfaced", err)
	}

	// All pool goroutines (workers, feeder, waiter) must have exited by
	// the time Run returns; allow the scheduler a moment to park them.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("%d goroutines remain after Run, started with %d", runtime.NumGoroutine(), before)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRun_CancellationReturnsContextError(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Bars: map[model.Symbol][]model.PriceBar{
			"AAA": collector.BarsFromCloses("AAA", since, 10),
		},
		Delay: time.Hour,
	}
	em := newCaptureEmitter()
	tr := New(collector.NewPool(fetcher, 1), 30, em, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := tr.Run(ctx, []model.Symbol{"AAA", "BBB"}, since)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(em.summaries) != 0 || len(em.failures) != 0 {
		t.Errorf("cancelled run emitted %d summaries, %d failures; want none", len(em.summaries), len(em.failures))
	}
}
