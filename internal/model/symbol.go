package model

import "strings"

// Symbol is a case-normalized ticker identifier. It is the unique key for
// aggregation and immutable once parsed.
type Symbol string

// ParseSymbol trims surrounding whitespace and upper-cases the raw ticker.
// A blank input yields the empty Symbol.
func ParseSymbol(raw string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(raw)))
}

// ParseSymbolList splits a comma-separated ticker list into Symbols.
// Blank entries are dropped. Duplicates are preserved: each occurrence is
// an independent fetch unit and produces its own outcome downstream.
func ParseSymbolList(csv string) []Symbol {
	parts := strings.Split(csv, ",")
	out := make([]Symbol, 0, len(parts))
	for _, p := range parts {
		if s := ParseSymbol(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
