// Package subsumption implements the Structured Subsumption Engine (SSE,
// spec.md §4.4): a fast numeric prefilter that evaluates a signifier's
// ordered-operator conditions against a context feature map, independent of
// any SHACL shape validation.
package subsumption

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aimas-cs-pub-ro/cashmere/internal/contextbuilder"
	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
)

// MissingValuePolicy controls how a condition referencing an absent context
// feature is scored.
type MissingValuePolicy string

const (
	// PolicyFail treats a missing value as a violation.
	PolicyFail MissingValuePolicy = "fail"
	// PolicyIgnore skips conditions whose value is missing.
	PolicyIgnore MissingValuePolicy = "ignore"
	// PolicyPass treats a missing value as satisfying the condition.
	PolicyPass MissingValuePolicy = "pass"
)

// Violation records one failed (or missing) condition.
type Violation struct {
	Artifact           string
	PropertyAffordance string
	Operator           string
	ExpectedValue      any
	ActualValue        any
	Message            string
}

// MissingProperty is an (artifact, property) pair absent from the context.
type MissingProperty struct {
	Artifact string
	Property string
}

// Result is the SSE outcome for one candidate signifier.
type Result struct {
	SSEPass           bool
	Violations        []Violation
	ConditionsChecked int
	MissingProperties []MissingProperty
}

// Evaluator evaluates structured conditions with a configured missing-value
// policy and type-coercion setting. It is purely numeric and holds no state
// across calls.
type Evaluator struct {
	MissingValuePolicy MissingValuePolicy
	EnableTypeCoercion bool
	logger             *slog.Logger
}

// NewEvaluator builds an Evaluator. Defaults match spec.md §4.4:
// missing_value_policy=fail, enable_type_coercion=true.
func NewEvaluator(policy MissingValuePolicy, enableCoercion bool, logger *slog.Logger) *Evaluator {
	if policy == "" {
		policy = PolicyFail
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{MissingValuePolicy: policy, EnableTypeCoercion: enableCoercion, logger: logger}
}

// Evaluate scores one candidate's structured conditions against a context
// feature map.
func (e *Evaluator) Evaluate(conditions []model.StructuredCondition, features contextbuilder.Features) Result {
	if len(conditions) == 0 {
		return Result{SSEPass: true}
	}

	var violations []Violation
	var missing []MissingProperty
	conditionsChecked := 0

	for _, cond := range conditions {
		key := model.PropertyKey{Artifact: cond.Artifact, Property: cond.PropertyAffordance}
		actual, present := features[key]
		if !present {
			missing = append(missing, MissingProperty{Artifact: cond.Artifact, Property: cond.PropertyAffordance})
			switch e.MissingValuePolicy {
			case PolicyFail:
				violations = append(violations, Violation{
					Artifact:           cond.Artifact,
					PropertyAffordance: cond.PropertyAffordance,
					Operator:           "missing",
					ExpectedValue:      "<present>",
					ActualValue:        nil,
					Message:            fmt.Sprintf("missing property %s on artifact %s", cond.PropertyAffordance, cond.Artifact),
				})
			case PolicyIgnore, PolicyPass:
				// ignore: skip the condition entirely; pass: treat as
				// satisfied, neither records a violation.
			}
			continue
		}

		for _, vc := range cond.ValueConditions {
			conditionsChecked++
			if !e.evaluateCondition(vc, actual) {
				violations = append(violations, Violation{
					Artifact:           cond.Artifact,
					PropertyAffordance: cond.PropertyAffordance,
					Operator:           string(vc.Operator),
					ExpectedValue:      vc.Value,
					ActualValue:        actual,
					Message:            formatViolationMessage(vc, actual),
				})
			}
		}
	}

	e.logger.Debug("sse evaluation", "conditions_checked", conditionsChecked, "violations", len(violations))

	return Result{
		SSEPass:           len(violations) == 0,
		Violations:        violations,
		ConditionsChecked: conditionsChecked,
		MissingProperties: missing,
	}
}

// BatchItem pairs a signifier id with the conditions to evaluate against a
// shared context feature map.
type BatchItem struct {
	SignifierID string
	Conditions  []model.StructuredCondition
}

// EvaluateBatch evaluates every item concurrently against the same feature
// map, returning results keyed by signifier id.
func (e *Evaluator) EvaluateBatch(ctx context.Context, items []BatchItem, features contextbuilder.Features) (map[string]Result, error) {
	results := make(map[string]Result, len(items))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		g.Go(func() error {
			r := e.Evaluate(item.Conditions, features)
			mu.Lock()
			results[item.SignifierID] = r
			mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (e *Evaluator) evaluateCondition(vc model.ValueCondition, actual any) bool {
	expected := vc.Value
	if e.EnableTypeCoercion {
		actual = coerce(expected, actual, e.logger)
	}

	switch vc.Operator {
	case model.OpGreaterThan:
		return compareOrdered(actual, expected, func(c int) bool { return c > 0 })
	case model.OpLessThan:
		return compareOrdered(actual, expected, func(c int) bool { return c < 0 })
	case model.OpGreaterEqual:
		return compareOrdered(actual, expected, func(c int) bool { return c >= 0 })
	case model.OpLessEqual:
		return compareOrdered(actual, expected, func(c int) bool { return c <= 0 })
	case model.OpEquals:
		return equalValues(actual, expected)
	case model.OpNotEquals:
		return !equalValues(actual, expected)
	default:
		e.logger.Warn("unknown sse operator", "operator", vc.Operator)
		return false
	}
}

func coerce(expected, actual any, logger *slog.Logger) any {
	switch expected.(type) {
	case int, int64, float32, float64:
		if f, ok := toFloat(actual); ok {
			return f
		}
		if s, ok := actual.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		logger.Warn("sse type coercion to number failed", "value", actual)
		return actual
	case string:
		if _, ok := actual.(string); ok {
			return actual
		}
		return fmt.Sprintf("%v", actual)
	default:
		return actual
	}
}

// compareOrdered compares two numeric-or-string values and applies cmp to
// the sign of the difference; non-comparable pairs fail the condition
// (mirroring the original's TypeError-as-failure behavior).
func compareOrdered(actual, expected any, cmp func(int) bool) bool {
	if af, aok := toFloat(actual); aok {
		if ef, eok := toFloat(expected); eok {
			switch {
			case af < ef:
				return cmp(-1)
			case af > ef:
				return cmp(1)
			default:
				return cmp(0)
			}
		}
	}
	as, aok := actual.(string)
	es, eok := expected.(string)
	if aok && eok {
		switch {
		case as < es:
			return cmp(-1)
		case as > es:
			return cmp(1)
		default:
			return cmp(0)
		}
	}
	return false
}

func equalValues(actual, expected any) bool {
	if af, aok := toFloat(actual); aok {
		if ef, eok := toFloat(expected); eok {
			return af == ef
		}
	}
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func formatViolationMessage(vc model.ValueCondition, actual any) string {
	text, ok := operatorText[vc.Operator]
	if !ok {
		text = string(vc.Operator)
	}
	return fmt.Sprintf("expected value to be %s %v, but got %v", text, vc.Value, actual)
}

var operatorText = map[model.Operator]string{
	model.OpGreaterThan:  "greater than",
	model.OpLessThan:     "less than",
	model.OpGreaterEqual: "greater than or equal to",
	model.OpLessEqual:    "less than or equal to",
	model.OpEquals:       "equal to",
	model.OpNotEquals:    "not equal to",
}
