package collector

import (
	"context"
	"time"

	"QuoteTrack/internal/model"
)

// Fetcher is the quote source boundary: given a symbol and a start
// timestamp, it produces that symbol's daily closing bars in time order,
// or fails. Any error is treated uniformly downstream as a failure
// outcome for that symbol only.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol model.Symbol, since time.Time) ([]model.PriceBar, error)
	Name() string
}
