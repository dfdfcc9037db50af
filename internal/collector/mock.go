package collector

import (
	"context"
	"fmt"
	"time"

	"QuoteTrack/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[model.Symbol][]model.PriceBar
	Errs  map[model.Symbol]error
	Delay time.Duration

	// OnFetch, when set, is invoked at the start of every call. Tests use
	// it to observe and gate concurrency.
	OnFetch func(symbol model.Symbol)
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol model.Symbol, since time.Time) ([]model.PriceBar, error) {
	if m.OnFetch != nil {
		m.OnFetch(symbol)
	}
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return nil, fmt.Errorf("mock: no data for %s", symbol)
}

// BarsFromCloses builds an ordered daily bar sequence from raw closes,
// one bar per day starting at since.
func BarsFromCloses(symbol model.Symbol, since time.Time, closes ...float64) []model.PriceBar {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{Symbol: symbol, Time: since.AddDate(0, 0, i), Close: c}
	}
	return bars
}
