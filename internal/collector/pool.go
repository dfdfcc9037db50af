package collector

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"QuoteTrack/internal/model"
)

// Pool resolves price histories for a list of symbols with bounded
// concurrency: at most limit fetches are in flight at any instant, and a
// new fetch starts as soon as a slot frees. Outcomes are delivered in
// completion order, one per input symbol (duplicates included), and a
// fetch failure is confined to its own outcome — it never cancels or
// delays the rest.
type Pool struct {
	fetcher Fetcher
	limit   int
}

// NewPool creates a Pool over fetcher. Limits below 1 are clamped to 1.
func NewPool(fetcher Fetcher, limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{fetcher: fetcher, limit: limit}
}

// Limit returns the configured concurrency limit.
func (p *Pool) Limit() int { return p.limit }

// Fetch starts the fan-out and returns the outcome stream. The channel
// carries exactly one FetchOutcome per input symbol and is closed when
// all units are done. If ctx is cancelled the in-flight fetches stop
// cooperatively and the channel closes early; pending symbols produce no
// outcome.
func (p *Pool) Fetch(ctx context.Context, symbols []model.Symbol, since time.Time) <-chan model.FetchOutcome {
	out := make(chan model.FetchOutcome)
	jobs := make(chan model.Symbol)

	workers := p.limit
	if len(symbols) < workers {
		workers = len(symbols)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for sym := range jobs {
				bars, err := p.fetcher.FetchHistory(gctx, sym, since)
				if err != nil && gctx.Err() != nil {
					// Cancellation, not a per-symbol failure: emit nothing.
					return gctx.Err()
				}
				select {
				case out <- model.FetchOutcome{Symbol: sym, Bars: bars, Err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		defer close(jobs)
		for _, sym := range symbols {
			select {
			case jobs <- sym:
			case <-gctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = g.Wait()
		close(out)
	}()

	return out
}
