package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"QuoteTrack/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[model.Symbol]string // maps internal symbol to Yahoo ticker
}

const yahooBaseURL = "https://query1.finance.yahoo.com"

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy
// support.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[model.Symbol]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol model.Symbol) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return string(symbol)
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
				Adjclose []struct {
					Adjclose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// FetchHistory returns daily adjusted closes for the symbol from since up
// to now, oldest first. Null entries (holidays, halted days) are skipped.
// An empty window is not an error: the caller receives zero bars.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol model.Symbol, since time.Time) ([]model.PriceBar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), since.Unix(), time.Now().Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no result for %s", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}

	// Prefer adjusted closes when present, matching the daily series the
	// rest of the pipeline expects; fall back to raw closes.
	var closes []interface{}
	if len(result.Indicators.Adjclose) > 0 && len(result.Indicators.Adjclose[0].Adjclose) == len(result.Timestamp) {
		closes = result.Indicators.Adjclose[0].Adjclose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("yahoo: malformed series for %s", symbol)
	}

	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c, ok := toFloat(closes[i])
		if !ok {
			continue // null bar (holiday etc.)
		}
		bars = append(bars, model.PriceBar{
			Symbol: symbol,
			Time:   time.Unix(ts, 0).UTC(),
			Close:  c,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
