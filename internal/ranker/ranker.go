// Package ranker implements the Ranker & Policy stage (RP, spec.md §4.6):
// combines per-candidate signals into a final score, enforces hard gates,
// and produces human-readable explanations.
package ranker

import (
	"fmt"
	"log/slog"
	"sort"
)

// Signal is one named contributor to a candidate's final score.
type Signal struct {
	Name   string
	Value  any
	Weight float64
	IsGate bool
}

// Candidate is the per-signifier input the ranker scores.
type Candidate struct {
	SignifierID      string
	IntentSimilarity float64
	ShaclConforms    bool
	ShaclHasShapes   bool
	SSERan           bool
	SSEPass          bool
	ConstraintCount  int
}

// Result is one candidate's ranked outcome.
type Result struct {
	SignifierID string
	FinalScore  float64
	Signals     []Signal
	PassedGates bool
	Explanation []string
	Metadata    map[string]any
}

// Weights are the default per-signal weights (spec.md §4.6).
type Weights struct {
	IntentSimilarity float64
	Shacl            float64
	SSE              float64
}

// DefaultWeights returns the spec-default weight set.
func DefaultWeights() Weights {
	return Weights{IntentSimilarity: 0.7, Shacl: 0.2, SSE: 0.1}
}

// Ranker combines signals into ranked results under a fixed policy.
type Ranker struct {
	Weights          Weights
	EnableShaclGate  bool
	EnableSSEGate    bool
	SpecificityBoost float64
	logger           *slog.Logger
}

// Option configures a Ranker at construction.
type Option func(*Ranker)

// WithWeights overrides the default signal weights.
func WithWeights(w Weights) Option { return func(r *Ranker) { r.Weights = w } }

// WithSSEGate toggles the hard SSE gate (default off).
func WithSSEGate(enabled bool) Option { return func(r *Ranker) { r.EnableSSEGate = enabled } }

// WithShaclGate toggles the hard SHACL gate (default on).
func WithShaclGate(enabled bool) Option { return func(r *Ranker) { r.EnableShaclGate = enabled } }

// WithSpecificityBoost overrides the per-constraint score boost (default 0.01).
func WithSpecificityBoost(boost float64) Option { return func(r *Ranker) { r.SpecificityBoost = boost } }

// New builds a Ranker with the spec defaults, then applies opts.
func New(logger *slog.Logger, opts ...Option) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Ranker{
		Weights:          DefaultWeights(),
		EnableShaclGate:  true,
		EnableSSEGate:    false,
		SpecificityBoost: 0.01,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every candidate and returns results sorted by final_score
// descending, ties broken by signifier_id ascending.
func (r *Ranker) Rank(candidates []Candidate) []Result {
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, r.rankOne(c))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].SignifierID < results[j].SignifierID
	})

	passed := 0
	for _, res := range results {
		if res.PassedGates {
			passed++
		}
	}
	r.logger.Info("ranked candidates", "count", len(results), "passed_gates", passed)
	return results
}

func (r *Ranker) rankOne(c Candidate) Result {
	var signals []Signal
	var explanation []string

	intentSignal := Signal{Name: "intent_similarity", Value: c.IntentSimilarity, Weight: r.Weights.IntentSimilarity}
	signals = append(signals, intentSignal)
	explanation = append(explanation, fmt.Sprintf("Intent similarity: %.4f (weight: %v)", c.IntentSimilarity, intentSignal.Weight))

	passedGates := true

	if c.ShaclHasShapes {
		shaclSignal := Signal{Name: "shacl_conforms", Value: c.ShaclConforms, Weight: r.Weights.Shacl, IsGate: r.EnableShaclGate}
		signals = append(signals, shaclSignal)
		if c.ShaclConforms {
			explanation = append(explanation, fmt.Sprintf("SHACL validation: PASS (weight: %v)", shaclSignal.Weight))
		} else {
			explanation = append(explanation, "SHACL validation: FAIL (hard gate)")
			if r.EnableShaclGate {
				passedGates = false
			}
		}
	}

	if c.SSERan {
		sseSignal := Signal{Name: "sse_pass", Value: c.SSEPass, Weight: r.Weights.SSE, IsGate: r.EnableSSEGate}
		signals = append(signals, sseSignal)
		if c.SSEPass {
			explanation = append(explanation, fmt.Sprintf("SSE check: PASS (weight: %v)", sseSignal.Weight))
		} else {
			explanation = append(explanation, "SSE check: FAIL")
			if r.EnableSSEGate {
				passedGates = false
			}
		}
	}

	finalScore := 0.0
	if passedGates {
		finalScore = weightedScore(signals)
		if c.ConstraintCount > 0 {
			boost := float64(c.ConstraintCount) * r.SpecificityBoost
			finalScore = min(1.0, finalScore+boost)
			explanation = append(explanation, fmt.Sprintf("Specificity boost: +%.4f (%d constraints)", boost, c.ConstraintCount))
		}
	} else {
		explanation = append(explanation, "Final score: 0.0 (failed hard gates)")
	}

	return Result{
		SignifierID: c.SignifierID,
		FinalScore:  finalScore,
		Signals:     signals,
		PassedGates: passedGates,
		Explanation: explanation,
		Metadata: map[string]any{
			"constraint_count": c.ConstraintCount,
			"shacl_has_shapes": c.ShaclHasShapes,
		},
	}
}

func weightedScore(signals []Signal) float64 {
	var weightedSum, totalWeight float64
	for _, s := range signals {
		if s.IsGate {
			continue
		}
		value := 0.0
		switch v := s.Value.(type) {
		case bool:
			if v {
				value = 1.0
			}
		case float64:
			value = v
		}
		weightedSum += value * s.Weight
		totalWeight += s.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
