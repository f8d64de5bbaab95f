package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func validSignifier() *Signifier {
	return &Signifier{
		SignifierID:   "raise-blinds",
		Version:       1,
		Status:        StatusActive,
		Intent:        IntentionDescription{NLText: "raise the blinds"},
		AffordanceURI: "http://example.org/affordances/raise-blinds",
		Context: IntentContext{
			StructuredConditions: []StructuredCondition{{
				Artifact:           "http://example.org/artifacts/lum308",
				PropertyAffordance: "http://example.org/LightSensor#hasLuminosityLevel",
				ValueConditions:    []ValueCondition{{Operator: OpGreaterEqual, Value: 10000.0}},
			}},
		},
		Provenance: Provenance{CreatedBy: "tester", CreatedAt: time.Unix(0, 0).UTC()},
	}
}

func TestValidateAcceptsWellFormedSignifier(t *testing.T) {
	require.NoError(t, validSignifier().Validate())
}

func TestValidateRejectsEmptyID(t *testing.T) {
	sig := validSignifier()
	sig.SignifierID = ""
	require.ErrorIs(t, sig.Validate(), ErrInvalidInput)
}

func TestValidateRejectsVersionBelowOne(t *testing.T) {
	sig := validSignifier()
	sig.Version = 0
	require.ErrorIs(t, sig.Validate(), ErrInvalidInput)
}

func TestValidateRejectsUnknownStatus(t *testing.T) {
	sig := validSignifier()
	sig.Status = "archived"
	require.ErrorIs(t, sig.Validate(), ErrInvalidInput)
}

func TestValidateRejectsUnknownOperator(t *testing.T) {
	sig := validSignifier()
	sig.Context.StructuredConditions[0].ValueConditions[0].Operator = "weirdOp"
	require.ErrorIs(t, sig.Validate(), ErrInvalidInput)
}

func TestValidateRejectsStructuredConditionMissingArtifact(t *testing.T) {
	sig := validSignifier()
	sig.Context.StructuredConditions[0].Artifact = ""
	require.ErrorIs(t, sig.Validate(), ErrInvalidInput)
}

func TestCloneIsDeepEqualButIndependent(t *testing.T) {
	sig := validSignifier()
	sig.Intent.Structured = map[string]any{"verb": "raise"}
	sig.Indexes = map[string]any{"foo": "bar"}

	clone := sig.Clone()
	if diff := cmp.Diff(sig, clone); diff != "" {
		t.Fatalf("clone diverges from original (-want +got):\n%s", diff)
	}

	clone.Context.StructuredConditions[0].Artifact = "mutated"
	clone.Intent.Structured["verb"] = "lower"
	clone.Indexes["foo"] = "mutated"

	require.Equal(t, "http://example.org/artifacts/lum308", sig.Context.StructuredConditions[0].Artifact)
	require.Equal(t, "raise", sig.Intent.Structured["verb"])
	require.Equal(t, "bar", sig.Indexes["foo"])
}

func TestPropertyKeysExtractsArtifactPropertyPairs(t *testing.T) {
	sig := validSignifier()
	keys := sig.PropertyKeys()
	require.Len(t, keys, 1)
	require.Equal(t, PropertyKey{
		Artifact: "http://example.org/artifacts/lum308",
		Property: "http://example.org/LightSensor#hasLuminosityLevel",
	}, keys[0])
}
