package emitter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"QuoteTrack/internal/model"
)

// csvHeader matches the layout consumers of the previous tracker already
// parse: period start,symbol,price,change %,min,max,avg.
var csvHeader = []string{"period start", "symbol", "price", "change %", "min", "max", "avg"}

// CSVEmitter renders summaries as CSV rows. Failures produce a row with
// the reason in place of the numeric columns so that every requested
// symbol still appears exactly once in the output.
type CSVEmitter struct {
	w     *csv.Writer
	since time.Time
	wrote bool
}

// NewCSVEmitter creates a CSV emitter writing to w; since is the period
// start recorded on every row.
func NewCSVEmitter(w io.Writer, since time.Time) *CSVEmitter {
	return &CSVEmitter{w: csv.NewWriter(w), since: since}
}

func (e *CSVEmitter) header() error {
	if e.wrote {
		return nil
	}
	e.wrote = true
	return e.w.Write(csvHeader)
}

func (e *CSVEmitter) EmitSummary(s model.Summary) error {
	if err := e.header(); err != nil {
		return err
	}
	return e.w.Write([]string{
		e.since.Format(time.RFC3339),
		string(s.Symbol),
		csvMoney(s.LastClose),
		csvPercent(s.PctChange),
		csvMoney(s.Min),
		csvMoney(s.Max),
		csvMoney(s.MovingAverage),
	})
}

func (e *CSVEmitter) EmitFailure(symbol model.Symbol, reason string) error {
	if err := e.header(); err != nil {
		return err
	}
	return e.w.Write([]string{
		e.since.Format(time.RFC3339),
		string(symbol),
		"error: " + reason, "", "", "", "",
	})
}

// Close flushes buffered rows.
func (e *CSVEmitter) Close() error {
	e.w.Flush()
	return e.w.Error()
}

func csvMoney(v float64) string {
	if !model.Defined(v) {
		return ""
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func csvPercent(v float64) string {
	if !model.Defined(v) {
		return ""
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
