package recorder

import "QuoteTrack/internal/model"

// Recorder persists the outcome of each run for later inspection.
type Recorder interface {
	RecordSummary(runID string, s model.Summary) error
	RecordFailure(runID string, symbol model.Symbol, reason string) error
	Close() error
}

// NoopRecorder is used when persistence is disabled.
type NoopRecorder struct{}

func (NoopRecorder) RecordSummary(string, model.Summary) error        { return nil }
func (NoopRecorder) RecordFailure(string, model.Symbol, string) error { return nil }
func (NoopRecorder) Close() error                                     { return nil }
