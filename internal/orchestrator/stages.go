package orchestrator

import (
	"context"
	"time"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/ranker"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
	"github.com/aimas-cs-pub-ro/cashmere/internal/shapes"
	"github.com/aimas-cs-pub-ro/cashmere/internal/subsumption"
)

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// runIM scores every active signifier against the query and resolves the
// top-k matches back into full signifiers, skipping any that a concurrent
// delete removed in the meantime (spec.md §9, "per-query immutability").
func (o *Orchestrator) runIM(ctx context.Context, req Request, k int) (ModuleResult, []candidate) {
	start := time.Now()

	signifiers := o.Registry.List(registry.ListFilter{Status: model.StatusActive})

	matches, err := o.Matchers.Match(ctx, req.IntentQuery, signifiers, k, req.MatcherVersion, req.MatcherParams)
	if err != nil {
		return ModuleResult{
			Module:         "IM",
			LatencyMS:      elapsedMS(start),
			CandidateCount: 0,
			Metadata:       map[string]any{"error": err.Error()},
		}, nil
	}

	var candidates []candidate
	for _, m := range matches {
		sig, err := o.Registry.Get(m.SignifierID)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			signifierID: m.SignifierID,
			signifier:   sig,
			intentSim:   m.Similarity,
		})
	}

	version := req.MatcherVersion
	if version == "" {
		version = o.Matchers.DefaultVersion()
	}

	return ModuleResult{
		Module:         "IM",
		LatencyMS:      elapsedMS(start),
		CandidateCount: len(candidates),
		Metadata:       map[string]any{"matcher_version": version},
	}, candidates
}

// runSSE evaluates each candidate's structured conditions against the
// request's context features. A signifier with no structured conditions
// trivially passes without invoking the evaluator.
func (o *Orchestrator) runSSE(ctx context.Context, req Request, candidates []candidate) (ModuleResult, []candidate) {
	start := time.Now()

	_, features, err := o.ContextBuilder.NormalizeContext(req.ContextInput)
	if err != nil {
		features = nil
	}

	var items []subsumption.BatchItem
	for _, c := range candidates {
		if len(c.signifier.Context.StructuredConditions) > 0 {
			items = append(items, subsumption.BatchItem{SignifierID: c.signifierID, Conditions: c.signifier.Context.StructuredConditions})
		}
	}

	results, _ := o.SSE.EvaluateBatch(ctx, items, features)

	passed := 0
	out := make([]candidate, len(candidates))
	for i, c := range candidates {
		if len(c.signifier.Context.StructuredConditions) == 0 {
			c.sseRan = true
			c.ssePass = true
		} else if r, ok := results[c.signifierID]; ok {
			c.sseRan = true
			c.ssePass = r.SSEPass
			for _, v := range r.Violations {
				c.sseViolations = append(c.sseViolations, v.Message)
			}
		}
		if c.ssePass {
			passed++
		}
		out[i] = c
	}

	return ModuleResult{
		Module:         "SSE",
		LatencyMS:      elapsedMS(start),
		CandidateCount: len(out),
		Metadata:       map[string]any{"passed_count": passed},
	}, out
}

// runSV validates every candidate with shacl_shapes against the normalized
// context graph, concurrently (spec.md §5), and tallies each candidate's
// lexical constraint count.
func (o *Orchestrator) runSV(ctx context.Context, req Request, candidates []candidate) (ModuleResult, []candidate) {
	start := time.Now()

	graph, _, err := o.ContextBuilder.NormalizeContext(req.ContextInput)

	var items []shapes.BatchItem
	if err == nil {
		for _, c := range candidates {
			if c.signifier.Context.ShaclShapes != "" {
				items = append(items, shapes.BatchItem{SignifierID: c.signifierID, ShaclShapes: c.signifier.Context.ShaclShapes})
			}
		}
	}
	var results map[string]shapes.Result
	if len(items) > 0 {
		results = o.ShapeValidator.ValidateBatch(ctx, graph, items)
	}

	passed := 0
	out := make([]candidate, len(candidates))
	for i, c := range candidates {
		c.shaclConforms = true
		if c.signifier.Context.ShaclShapes != "" && err == nil {
			c.shaclHasShapes = true
			c.constraintCount = shapes.ConstraintCount(c.signifier.Context.ShaclShapes)
			if result, ok := results[c.signifierID]; ok {
				c.shaclConforms = result.Conforms
				for _, v := range result.Violations {
					c.shaclViolations = append(c.shaclViolations, v.Message)
				}
			}
		}
		if c.shaclConforms {
			passed++
		}
		out[i] = c
	}

	return ModuleResult{
		Module:         "SV",
		LatencyMS:      elapsedMS(start),
		CandidateCount: len(out),
		Metadata:       map[string]any{"passed_count": passed},
	}, out
}

// runRP ranks every candidate, honoring a per-request ranking weight
// override.
func (o *Orchestrator) runRP(req Request, candidates []candidate) (ModuleResult, []ranker.Result) {
	start := time.Now()

	rk := o.Ranker
	if req.RankingWeights != nil {
		rk = ranker.New(nil, ranker.WithWeights(*req.RankingWeights))
		rk.EnableShaclGate = o.Ranker.EnableShaclGate
		rk.EnableSSEGate = o.Ranker.EnableSSEGate
		rk.SpecificityBoost = o.Ranker.SpecificityBoost
	}

	rankerCandidates := make([]ranker.Candidate, len(candidates))
	for i, c := range candidates {
		rankerCandidates[i] = ranker.Candidate{
			SignifierID:      c.signifierID,
			IntentSimilarity: c.intentSim,
			ShaclConforms:    c.shaclConforms,
			ShaclHasShapes:   c.shaclHasShapes,
			SSERan:           c.sseRan,
			SSEPass:          c.ssePass,
			ConstraintCount:  c.constraintCount,
		}
	}

	ranked := rk.Rank(rankerCandidates)

	return ModuleResult{
		Module:         "RP",
		LatencyMS:      elapsedMS(start),
		CandidateCount: len(ranked),
		Metadata:       map[string]any{},
	}, ranked
}
