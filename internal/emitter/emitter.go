package emitter

import "QuoteTrack/internal/model"

// Emitter receives the terminal notification for each fetch unit: either
// a finished Summary or a failure notice. Implementations decide the
// rendering; the pipeline imposes no formatting.
type Emitter interface {
	EmitSummary(s model.Summary) error
	EmitFailure(symbol model.Symbol, reason string) error
	Close() error
}
