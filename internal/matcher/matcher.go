// Package matcher implements the Intent Matcher (IM, spec.md §4.3): a
// pluggable, versioned similarity scorer between a free-text query and each
// signifier's intent text, selected through a version registry.
package matcher

import (
	"context"
	"fmt"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
)

// Result is one signifier's match against a query.
type Result struct {
	SignifierID string
	Similarity  float64
	Metadata    map[string]any
}

// Info describes a registered matcher version.
type Info struct {
	Version         string
	Name            string
	Description     string
	Parameters      map[string]any
	LatencyBudgetMS int
}

// Matcher is the interface every IM version implements.
type Matcher interface {
	// Match scores query against signifiers and returns at most k results
	// sorted by similarity descending, ties broken by signifier_id.
	Match(ctx context.Context, query string, signifiers []*model.Signifier, k int, params map[string]any) ([]Result, error)
	Info() Info
	Version() string
}

// tokenize lowercases text (unless caseSensitive) and extracts word tokens
// of length >= 3, matching the lexical matcher's token filter.
func tokenize(text string, caseSensitive bool) []string {
	if !caseSensitive {
		text = toLower(text)
	}
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) >= 3 {
			tokens = append(tokens, string(cur))
		}
		cur = cur[:0]
	}
	for _, r := range text {
		if isWordRune(r) {
			cur = append(cur, r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	default:
		return false
	}
}

func toLower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}

func requireNonEmptyQuery(query string) error {
	if query == "" {
		return fmt.Errorf("%w: intent_query cannot be empty", model.ErrInvalidInput)
	}
	return nil
}
