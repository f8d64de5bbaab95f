package ranker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankWeightsIntentSimilarityByDefault(t *testing.T) {
	r := New(nil)
	results := r.Rank([]Candidate{{SignifierID: "a", IntentSimilarity: 1.0}})
	require.Len(t, results, 1)
	require.InDelta(t, 1.0, results[0].FinalScore, 1e-9)
	require.True(t, results[0].PassedGates)
}

func TestRankShaclGateForcesZeroEvenWithPerfectSimilarity(t *testing.T) {
	r := New(nil)
	results := r.Rank([]Candidate{{
		SignifierID:      "gate-forced-zero",
		IntentSimilarity: 1.0,
		ShaclHasShapes:   true,
		ShaclConforms:    false,
	}})
	require.Len(t, results, 1)
	require.Zero(t, results[0].FinalScore)
	require.False(t, results[0].PassedGates)
	require.Contains(t, strings.Join(results[0].Explanation, "\n"), "FAIL (hard gate)")
}

func TestRankShaclGateDisabledStillScoresSoft(t *testing.T) {
	r := New(nil, WithShaclGate(false))
	results := r.Rank([]Candidate{{
		SignifierID:      "soft-fail",
		IntentSimilarity: 1.0,
		ShaclHasShapes:   true,
		ShaclConforms:    false,
	}})
	require.True(t, results[0].PassedGates)
	require.Greater(t, results[0].FinalScore, 0.0)
}

func TestRankSSEGateDefaultOffDoesNotForceZero(t *testing.T) {
	r := New(nil)
	results := r.Rank([]Candidate{{
		SignifierID:      "sse-soft-fail",
		IntentSimilarity: 1.0,
		SSERan:           true,
		SSEPass:          false,
	}})
	require.True(t, results[0].PassedGates)
}

func TestRankSSEGateEnabledForcesZero(t *testing.T) {
	r := New(nil, WithSSEGate(true))
	results := r.Rank([]Candidate{{
		SignifierID:      "sse-hard-fail",
		IntentSimilarity: 1.0,
		SSERan:           true,
		SSEPass:          false,
	}})
	require.False(t, results[0].PassedGates)
	require.Zero(t, results[0].FinalScore)
}

func TestRankSpecificityBoostBreaksTies(t *testing.T) {
	r := New(nil)
	results := r.Rank([]Candidate{
		{SignifierID: "less-specific", IntentSimilarity: 0.8, ConstraintCount: 1},
		{SignifierID: "more-specific", IntentSimilarity: 0.8, ConstraintCount: 3},
	})
	require.Equal(t, "more-specific", results[0].SignifierID)
	require.Greater(t, results[0].FinalScore, results[1].FinalScore)
}

func TestRankSpecificityBoostCapsAtOne(t *testing.T) {
	r := New(nil)
	results := r.Rank([]Candidate{{SignifierID: "a", IntentSimilarity: 1.0, ConstraintCount: 1000}})
	require.Equal(t, 1.0, results[0].FinalScore)
}

func TestRankSortIsStableBySignifierIDOnExactTie(t *testing.T) {
	r := New(nil)
	results := r.Rank([]Candidate{
		{SignifierID: "b-signifier", IntentSimilarity: 0.5},
		{SignifierID: "a-signifier", IntentSimilarity: 0.5},
	})
	require.Equal(t, "a-signifier", results[0].SignifierID)
	require.Equal(t, "b-signifier", results[1].SignifierID)
}
