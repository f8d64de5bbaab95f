package subsumption

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aimas-cs-pub-ro/cashmere/internal/contextbuilder"
	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
)

func luminosityCondition() []model.StructuredCondition {
	return []model.StructuredCondition{
		{
			Artifact:           "http://example.org/artifacts/sensor1",
			PropertyAffordance: "http://example.org/LightSensor#hasLuminosityLevel",
			ValueConditions: []model.ValueCondition{
				{Operator: model.OpGreaterEqual, Value: 10000.0},
			},
		},
	}
}

func featuresWith(value any) contextbuilder.Features {
	return contextbuilder.Features{
		{Artifact: "http://example.org/artifacts/sensor1", Property: "http://example.org/LightSensor#hasLuminosityLevel"}: value,
	}
}

func TestEvaluateEmptyConditionsTriviallyPasses(t *testing.T) {
	e := NewEvaluator(PolicyFail, true, nil)
	result := e.Evaluate(nil, contextbuilder.Features{})
	require.True(t, result.SSEPass)
	require.Zero(t, result.ConditionsChecked)
}

func TestEvaluatePassesWhenConditionSatisfied(t *testing.T) {
	e := NewEvaluator(PolicyFail, true, nil)
	result := e.Evaluate(luminosityCondition(), featuresWith(12000.0))
	require.True(t, result.SSEPass)
	require.Equal(t, 1, result.ConditionsChecked)
	require.Empty(t, result.Violations)
}

func TestEvaluateFailsWhenConditionViolated(t *testing.T) {
	e := NewEvaluator(PolicyFail, true, nil)
	result := e.Evaluate(luminosityCondition(), featuresWith(500.0))
	require.False(t, result.SSEPass)
	require.Len(t, result.Violations, 1)
	require.Equal(t, "greaterEqual", result.Violations[0].Operator)
}

func TestEvaluateTypeCoercionParsesStringNumbers(t *testing.T) {
	e := NewEvaluator(PolicyFail, true, nil)
	result := e.Evaluate(luminosityCondition(), featuresWith("12000"))
	require.True(t, result.SSEPass)
}

func TestEvaluateMissingValuePolicyFail(t *testing.T) {
	e := NewEvaluator(PolicyFail, true, nil)
	result := e.Evaluate(luminosityCondition(), contextbuilder.Features{})
	require.False(t, result.SSEPass)
	require.Len(t, result.Violations, 1)
	require.Len(t, result.MissingProperties, 1)
}

func TestEvaluateMissingValuePolicyIgnore(t *testing.T) {
	e := NewEvaluator(PolicyIgnore, true, nil)
	result := e.Evaluate(luminosityCondition(), contextbuilder.Features{})
	require.True(t, result.SSEPass)
	require.Empty(t, result.Violations)
	require.Len(t, result.MissingProperties, 1)
}

func TestEvaluateMissingValuePolicyPass(t *testing.T) {
	e := NewEvaluator(PolicyPass, true, nil)
	result := e.Evaluate(luminosityCondition(), contextbuilder.Features{})
	require.True(t, result.SSEPass)
	require.Empty(t, result.Violations)
}

func TestEvaluateUnknownOperatorFails(t *testing.T) {
	e := NewEvaluator(PolicyFail, true, nil)
	conditions := []model.StructuredCondition{
		{
			Artifact:           "http://example.org/artifacts/sensor1",
			PropertyAffordance: "http://example.org/LightSensor#hasLuminosityLevel",
			ValueConditions:    []model.ValueCondition{{Operator: "bogus", Value: 1.0}},
		},
	}
	result := e.Evaluate(conditions, featuresWith(1.0))
	require.False(t, result.SSEPass)
}

func TestEvaluateBatchRunsConcurrentlyAndKeysByID(t *testing.T) {
	e := NewEvaluator(PolicyFail, true, nil)
	items := []BatchItem{
		{SignifierID: "pass-case", Conditions: luminosityCondition()},
		{SignifierID: "fail-case", Conditions: luminosityCondition()},
	}
	results, err := e.EvaluateBatch(context.Background(), items, featuresWith(12000.0))
	require.NoError(t, err)
	require.True(t, results["pass-case"].SSEPass)
	require.True(t, results["fail-case"].SSEPass)
}
