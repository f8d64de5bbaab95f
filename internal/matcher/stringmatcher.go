package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
)

// StringMatcher is the v0 Intent Matcher: lexical containment over word
// tokens, with no external model or network dependency.
type StringMatcher struct {
	logger *slog.Logger
}

// NewStringMatcher builds the v0 matcher. logger defaults to slog.Default().
func NewStringMatcher(logger *slog.Logger) *StringMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StringMatcher{logger: logger}
}

func (m *StringMatcher) Version() string { return "v0" }

func (m *StringMatcher) Info() Info {
	return Info{
		Version:     "v0",
		Name:        "String Contains Matcher",
		Description: "Lexical token-overlap similarity between the query and each signifier's intent text.",
		Parameters: map[string]any{
			"case_sensitive": map[string]any{"type": "bool", "default": false},
		},
		LatencyBudgetMS: 30,
	}
}

// Match scores every candidate by the fraction of query tokens also present
// in the signifier's natural-language and structured intent text.
func (m *StringMatcher) Match(_ context.Context, query string, signifiers []*model.Signifier, k int, params map[string]any) ([]Result, error) {
	if err := requireNonEmptyQuery(query); err != nil {
		return nil, err
	}
	if len(signifiers) == 0 {
		m.logger.Warn("string matcher invoked with no candidate signifiers")
		return []Result{}, nil
	}

	caseSensitive, _ := params["case_sensitive"].(bool)
	queryTokens := tokenize(query, caseSensitive)

	results := make([]Result, 0, len(signifiers))
	for _, sig := range signifiers {
		sim, matched := m.computeSimilarity(queryTokens, sig, caseSensitive)
		if sim <= 0 {
			continue
		}
		results = append(results, Result{
			SignifierID: sig.SignifierID,
			Similarity:  sim,
			Metadata: map[string]any{
				"matched_tokens": matched,
				"version":        "v0",
			},
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].SignifierID < results[j].SignifierID
	})

	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (m *StringMatcher) computeSimilarity(queryTokens []string, sig *model.Signifier, caseSensitive bool) (float64, []string) {
	if len(queryTokens) == 0 {
		return 0, nil
	}

	candidateText := sig.Intent.NLText
	if sig.Intent.Structured != nil {
		candidateText += " " + fmt.Sprintf("%v", sig.Intent.Structured)
	}
	candidateTokens := tokenize(candidateText, caseSensitive)
	candidateSet := make(map[string]bool, len(candidateTokens))
	for _, t := range candidateTokens {
		candidateSet[t] = true
	}

	var matched []string
	for _, qt := range queryTokens {
		if candidateSet[qt] {
			matched = append(matched, qt)
		}
	}
	return float64(len(matched)) / float64(len(queryTokens)), matched
}
