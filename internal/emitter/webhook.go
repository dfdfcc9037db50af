package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"QuoteTrack/internal/logger"
	"QuoteTrack/internal/model"
)

// WebhookEmitter POSTs each notification as a JSON document to a
// configured endpoint.
type WebhookEmitter struct {
	URL        string
	Client     *http.Client
	MaxRetries int
	Ctx        context.Context
}

// NewWebhookEmitter creates a webhook emitter with optional proxy support.
// ctx bounds delivery retries; cancelling it stops any backoff wait.
func NewWebhookEmitter(ctx context.Context, endpoint, proxyURL string) *WebhookEmitter {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WebhookEmitter{
		URL: endpoint,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		MaxRetries: 3,
		Ctx:        ctx,
	}
}

// summaryPayload is the wire shape of a summary notification. Undefined
// statistics are carried as JSON null.
type summaryPayload struct {
	Type          string   `json:"type"`
	Symbol        string   `json:"symbol"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	MovingAverage *float64 `json:"moving_average"`
	LastClose     *float64 `json:"last_close"`
	PctChange     *float64 `json:"pct_change"`
	SampleCount   int      `json:"sample_count"`
}

type failurePayload struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

func (e *WebhookEmitter) EmitSummary(s model.Summary) error {
	return e.post(summaryPayload{
		Type:          "summary",
		Symbol:        string(s.Symbol),
		Min:           optional(s.Min),
		Max:           optional(s.Max),
		MovingAverage: optional(s.MovingAverage),
		LastClose:     optional(s.LastClose),
		PctChange:     optional(s.PctChange),
		SampleCount:   s.SampleCount,
	})
}

func (e *WebhookEmitter) EmitFailure(symbol model.Symbol, reason string) error {
	return e.post(failurePayload{Type: "failure", Symbol: string(symbol), Reason: reason})
}

func (e *WebhookEmitter) Close() error { return nil }

// post delivers one payload with exponential backoff retry.
func (e *WebhookEmitter) post(payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for i := 0; i <= e.MaxRetries; i++ {
		lastErr = e.send(body)
		if lastErr == nil {
			return nil
		}
		if i == e.MaxRetries {
			break // out of attempts, no point waiting
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		logger.L().Warn().Err(lastErr).Int("attempt", i+1).Dur("backoff", backoff).Msg("webhook delivery failed")
		select {
		case <-e.Ctx.Done():
			return e.Ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", e.MaxRetries+1, lastErr)
}

func (e *WebhookEmitter) send(body []byte) error {
	req, err := http.NewRequestWithContext(e.Ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return fmt.Errorf("webhook: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func optional(v float64) *float64 {
	if !model.Defined(v) {
		return nil
	}
	return &v
}
