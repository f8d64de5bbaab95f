// Package retrieval implements the retrieve tool: a thin wrapper over
// internal/orchestrator.Orchestrator.Retrieve, the only operation on the
// query side of the tool surface (spec.md §4.7, §8).
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aimas-cs-pub-ro/cashmere/internal/orchestrator"
	"github.com/aimas-cs-pub-ro/cashmere/internal/ranker"
	"github.com/aimas-cs-pub-ro/cashmere/internal/toolkit"
)

type retrieveParams struct {
	IntentQuery    string         `json:"intent_query"`
	Context        any            `json:"context,omitempty"`
	Pipeline       []string       `json:"pipeline,omitempty"`
	MatcherVersion string         `json:"matcher_version,omitempty"`
	K              int            `json:"k,omitempty"`
	Weights        *ranker.Weights `json:"ranking_weights,omitempty"`
	EnableSSE      *bool          `json:"enable_sse,omitempty"`
	DeadlineMS     int            `json:"deadline_ms,omitempty"`
}

// Retrieve runs the full IM -> SSE -> SV -> RP pipeline for one query.
type Retrieve struct {
	orc               *orchestrator.Orchestrator
	defaultEnableSSE  bool
	defaultDeadlineMS int
}

// NewRetrieve builds the retrieve tool. defaultEnableSSE and
// defaultDeadlineMS come from config.RetrievalConfig and apply when a
// caller omits the corresponding argument.
func NewRetrieve(orc *orchestrator.Orchestrator, defaultEnableSSE bool, defaultDeadlineMS int) *Retrieve {
	return &Retrieve{orc: orc, defaultEnableSSE: defaultEnableSSE, defaultDeadlineMS: defaultDeadlineMS}
}

func (t *Retrieve) Name() string { return "retrieve" }
func (t *Retrieve) Description() string {
	return "Run the retrieval pipeline (intent matching, structured subsumption, shape validation, ranking) against the signifier registry for a natural-language query and a context snapshot, returning ranked, gated results."
}
func (t *Retrieve) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "intent_query": {"type": "string", "description": "Natural-language description of what the caller wants to do"},
    "context": {
      "description": "Context snapshot: either a flat {\"artifact::property\": value} map or a nested {artifact: {property: value}} map",
      "type": "object"
    },
    "pipeline": {"type": "array", "items": {"type": "string", "enum": ["IM", "SSE", "SV", "RP"]}, "description": "Stage order; defaults to the configured default"},
    "matcher_version": {"type": "string", "description": "Intent matcher version to use, e.g. v0 or v1"},
    "k": {"type": "integer", "description": "Max candidates to carry out of intent matching"},
    "enable_sse": {"type": "boolean", "description": "Whether to run structured subsumption"},
    "deadline_ms": {"type": "integer", "description": "Soft per-request deadline in milliseconds"}
  },
  "required": ["intent_query"]
}`)
}

func (t *Retrieve) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p retrieveParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if p.IntentQuery == "" {
		return toolkit.ErrorResult("intent_query is required"), nil
	}

	enableSSE := t.defaultEnableSSE
	if p.EnableSSE != nil {
		enableSSE = *p.EnableSSE
	}
	deadlineMS := t.defaultDeadlineMS
	if p.DeadlineMS > 0 {
		deadlineMS = p.DeadlineMS
	}

	reqCtx := ctx
	if deadlineMS > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, time.Duration(deadlineMS)*time.Millisecond)
		defer cancel()
	}

	resp, err := t.orc.Retrieve(reqCtx, orchestrator.Request{
		IntentQuery:    p.IntentQuery,
		ContextInput:   p.Context,
		Pipeline:       p.Pipeline,
		MatcherVersion: p.MatcherVersion,
		K:              p.K,
		RankingWeights: p.Weights,
		EnableSSE:      enableSSE,
	})
	if err != nil {
		return nil, err
	}
	return toolkit.JSONResult(struct {
		RequestID string `json:"request_id"`
		orchestrator.Response
	}{RequestID: uuid.NewString(), Response: resp})
}
