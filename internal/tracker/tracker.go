package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"QuoteTrack/internal/aggregator"
	"QuoteTrack/internal/collector"
	"QuoteTrack/internal/emitter"
	"QuoteTrack/internal/logger"
	"QuoteTrack/internal/model"
	"QuoteTrack/internal/recorder"
)

// Tracker drives one tracking pass: fan out history fetches through the
// pool, fold each symbol's bars into rolling statistics, and hand exactly
// one terminal notification per requested symbol to the emitter.
type Tracker struct {
	Pool       *collector.Pool
	WindowSize int
	Emitter    emitter.Emitter
	Recorder   recorder.Recorder
}

// New creates a tracker. A nil recorder disables persistence.
func New(pool *collector.Pool, windowSize int, em emitter.Emitter, rec recorder.Recorder) *Tracker {
	if rec == nil {
		rec = recorder.NoopRecorder{}
	}
	return &Tracker{
		Pool:       pool,
		WindowSize: windowSize,
		Emitter:    em,
		Recorder:   rec,
	}
}

// Run executes a single pass over symbols and returns once every symbol
// has produced its notification or ctx is cancelled. Outcomes are handled
// in completion order; a failed fetch never blocks the others.
func (t *Tracker) Run(ctx context.Context, symbols []model.Symbol, since time.Time) error {
	runID := uuid.NewString()
	started := time.Now()
	log := logger.L().With().Str("run_id", runID).Logger()
	log.Info().
		Int("symbols", len(symbols)).
		Int("concurrency", t.Pool.Limit()).
		Time("since", since).
		Msg("tracking pass started")

	// The pool runs on a child context so an early exit below can reclaim
	// its workers instead of leaving them blocked on the outcome channel.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := t.Pool.Fetch(ctx, symbols, since)

	var summaries, failures int
	for outcome := range outcomes {
		if outcome.Failed() {
			failures++
			reason := outcome.Err.Error()
			log.Warn().Str("symbol", string(outcome.Symbol)).Str("reason", reason).Msg("fetch failed")
			if err := t.Emitter.EmitFailure(outcome.Symbol, reason); err != nil {
				drain(cancel, outcomes)
				return fmt.Errorf("emit failure for %s: %w", outcome.Symbol, err)
			}
			if err := t.Recorder.RecordFailure(runID, outcome.Symbol, reason); err != nil {
				log.Error().Err(err).Str("symbol", string(outcome.Symbol)).Msg("record failure")
			}
			continue
		}

		s := t.fold(outcome)
		summaries++
		if err := t.Emitter.EmitSummary(s); err != nil {
			drain(cancel, outcomes)
			return fmt.Errorf("emit summary for %s: %w", s.Symbol, err)
		}
		if err := t.Recorder.RecordSummary(runID, s); err != nil {
			log.Error().Err(err).Str("symbol", string(s.Symbol)).Msg("record summary")
		}
	}

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("tracking pass cancelled")
		return err
	}

	log.Info().
		Int("summaries", summaries).
		Int("failures", failures).
		Dur("elapsed", time.Since(started)).
		Msg("tracking pass finished")
	return nil
}

// drain stops the fan-out and discards the outcomes already in flight so
// the pool's workers, feeder and waiter all exit before Run returns.
func drain(cancel context.CancelFunc, outcomes <-chan model.FetchOutcome) {
	cancel()
	for range outcomes {
	}
}

// fold replays a symbol's bars through a fresh window. Zero bars still
// yield a summary so the caller can tell "no data" apart from "no answer".
func (t *Tracker) fold(outcome model.FetchOutcome) model.Summary {
	w := aggregator.New(outcome.Symbol, t.WindowSize)
	for _, bar := range outcome.Bars {
		w.Apply(bar)
	}
	return w.Summary()
}
