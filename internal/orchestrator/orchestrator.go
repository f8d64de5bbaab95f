// Package orchestrator implements the Retrieval Orchestrator (spec.md
// §4.7): it sequences Intent Matching (IM), Structured Subsumption (SSE),
// Shape Validation (SV), and Ranking & Policy (RP) over a signifier
// registry, measuring per-stage latency and composing the final response.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/aimas-cs-pub-ro/cashmere/internal/contextbuilder"
	"github.com/aimas-cs-pub-ro/cashmere/internal/matcher"
	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/ranker"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
	"github.com/aimas-cs-pub-ro/cashmere/internal/shapes"
	"github.com/aimas-cs-pub-ro/cashmere/internal/subsumption"
)

// DefaultPipeline is the spec default stage order.
var DefaultPipeline = []string{"IM", "SSE", "SV", "RP"}

// Request is one retrieval call.
type Request struct {
	IntentQuery    string
	ContextInput   any
	Pipeline       []string
	MatcherVersion string
	K              int
	RankingWeights *ranker.Weights
	EnableSSE      bool
	MatcherParams  map[string]any
}

// ModuleResult records one stage's execution.
type ModuleResult struct {
	Module         string
	LatencyMS      float64
	CandidateCount int
	Metadata       map[string]any
}

// Summary is the response's top-level digest.
type Summary struct {
	TotalResults int
	PassedGates  int
	FailedGates  int
	Pipeline     []string
	IntentQuery  string
}

// Response is the orchestrator's result for one Retrieve call.
type Response struct {
	Results        []ranker.Result
	ModuleResults  []ModuleResult
	TotalLatencyMS float64
	Summary        Summary
}

// candidate threads per-signifier state through the pipeline stages.
type candidate struct {
	signifierID     string
	signifier       *model.Signifier
	intentSim       float64
	sseRan          bool
	ssePass         bool
	sseViolations   []string
	shaclConforms   bool
	shaclHasShapes  bool
	shaclViolations []string
	constraintCount int
}

// Orchestrator wires every pipeline stage together.
type Orchestrator struct {
	Registry        *registry.Registry
	Matchers        *matcher.Registry
	ContextBuilder  *contextbuilder.Builder
	SSE             *subsumption.Evaluator
	ShapeValidator  *shapes.Validator
	Ranker          *ranker.Ranker
	DefaultPipeline []string
	logger          *slog.Logger
}

// New builds an Orchestrator from its already-constructed dependencies.
// A nil context builder, SSE evaluator, shape validator, ranker or logger
// falls back to its package default; reg and matchers are used as given.
func New(reg *registry.Registry, matchers *matcher.Registry, cb *contextbuilder.Builder, sse *subsumption.Evaluator, sv *shapes.Validator, rk *ranker.Ranker, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cb == nil {
		cb = contextbuilder.NewBuilder(logger)
	}
	if sse == nil {
		sse = subsumption.NewEvaluator(subsumption.PolicyFail, true, logger)
	}
	if sv == nil {
		sv = shapes.NewValidator(nil, logger)
	}
	if rk == nil {
		rk = ranker.New(logger)
	}
	return &Orchestrator{
		Registry:        reg,
		Matchers:        matchers,
		ContextBuilder:  cb,
		SSE:             sse,
		ShapeValidator:  sv,
		Ranker:          rk,
		DefaultPipeline: DefaultPipeline,
		logger:          logger,
	}
}

func stageEnabled(pipeline []string, name string) bool {
	for _, s := range pipeline {
		if s == name {
			return true
		}
	}
	return false
}

// Retrieve runs the configured pipeline for req. ctx may carry a deadline;
// on expiry mid-stage, the current stage's metadata is annotated with
// timed_out=true and downstream stages are skipped (spec.md §4.7).
func (o *Orchestrator) Retrieve(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	pipeline := req.Pipeline
	if len(pipeline) == 0 {
		pipeline = o.DefaultPipeline
	}
	k := req.K
	if k <= 0 {
		k = 10
	}

	var moduleResults []ModuleResult
	var candidates []candidate
	timedOut := false

	if stageEnabled(pipeline, "IM") {
		mr, cs := o.runIM(ctx, req, k)
		moduleResults = append(moduleResults, mr)
		candidates = cs
		timedOut = timedOut || deadlineExpired(ctx)
	}

	if stageEnabled(pipeline, "SSE") && len(candidates) > 0 && req.EnableSSE && !timedOut {
		mr, cs := o.runSSE(ctx, req, candidates)
		moduleResults = append(moduleResults, mr)
		candidates = cs
		timedOut = timedOut || deadlineExpired(ctx)
	}

	if stageEnabled(pipeline, "SV") && len(candidates) > 0 && !timedOut {
		mr, cs := o.runSV(ctx, req, candidates)
		moduleResults = append(moduleResults, mr)
		candidates = cs
		timedOut = timedOut || deadlineExpired(ctx)
	}

	var ranked []ranker.Result
	if stageEnabled(pipeline, "RP") && len(candidates) > 0 && !timedOut {
		mr, rr := o.runRP(req, candidates)
		moduleResults = append(moduleResults, mr)
		ranked = rr
	}

	if timedOut && len(moduleResults) > 0 {
		last := &moduleResults[len(moduleResults)-1]
		if last.Metadata == nil {
			last.Metadata = map[string]any{}
		}
		last.Metadata["timed_out"] = true
	}

	totalLatencyMS := float64(time.Since(start)) / float64(time.Millisecond)

	passed, failed := 0, 0
	for _, r := range ranked {
		if r.PassedGates {
			passed++
		} else {
			failed++
		}
	}

	o.logger.Info("retrieval pipeline complete", "results", len(ranked), "total_latency_ms", totalLatencyMS)

	return Response{
		Results:        ranked,
		ModuleResults:  moduleResults,
		TotalLatencyMS: totalLatencyMS,
		Summary: Summary{
			TotalResults: len(ranked),
			PassedGates:  passed,
			FailedGates:  failed,
			Pipeline:     pipeline,
			IntentQuery:  req.IntentQuery,
		},
	}, nil
}

func deadlineExpired(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
