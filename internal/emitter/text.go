package emitter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"QuoteTrack/internal/model"
)

// TextEmitter renders summaries as human-readable lines.
type TextEmitter struct {
	W     io.Writer
	Since time.Time
}

// NewTextEmitter creates a text emitter writing to w; since is the period
// start shown on every line.
func NewTextEmitter(w io.Writer, since time.Time) *TextEmitter {
	return &TextEmitter{W: w, Since: since}
}

func (e *TextEmitter) EmitSummary(s model.Summary) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-8s", s.Symbol))
	if s.SampleCount == 0 {
		b.WriteString("  no data since ")
		b.WriteString(e.Since.Format("2006-01-02"))
		_, err := fmt.Fprintln(e.W, b.String())
		return err
	}
	b.WriteString(fmt.Sprintf("  last %s", money(s.LastClose)))
	b.WriteString(fmt.Sprintf("  chg %s", percent(s.PctChange)))
	b.WriteString(fmt.Sprintf("  min %s  max %s", money(s.Min), money(s.Max)))
	b.WriteString(fmt.Sprintf("  avg %s", money(s.MovingAverage)))
	b.WriteString(fmt.Sprintf("  bars %d", s.SampleCount))
	_, err := fmt.Fprintln(e.W, b.String())
	return err
}

func (e *TextEmitter) EmitFailure(symbol model.Symbol, reason string) error {
	_, err := fmt.Fprintf(e.W, "%-8s  fetch failed: %s\n", symbol, reason)
	return err
}

func (e *TextEmitter) Close() error { return nil }

func money(v float64) string {
	if !model.Defined(v) {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", v)
}

func percent(v float64) string {
	if !model.Defined(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}
