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

// RESTFetcher implements Fetcher against a self-hosted bar-server API
// exposing GET /api/v1/bars/daily?symbol=...&since=<unix>.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar-server API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
}

// FetchHistory returns the symbol's daily closes from since onward,
// oldest first.
func (f *RESTFetcher) FetchHistory(ctx context.Context, symbol model.Symbol, since time.Time) ([]model.PriceBar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&since=%d",
		f.BaseURL, url.QueryEscape(string(symbol)), since.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}

	bars := make([]model.PriceBar, len(raw))
	for i, rb := range raw {
		bars[i] = model.PriceBar{
			Symbol: symbol,
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Close:  rb.Close,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
