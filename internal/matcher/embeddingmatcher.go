package matcher

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
)

// EmbeddingMatcher is the v1 Intent Matcher: cosine similarity over
// embedding vectors from a pluggable Provider, with per-signifier embedding
// vectors memoized in a bounded cache keyed by signifier id + intent text.
type EmbeddingMatcher struct {
	provider Provider
	cache    *registry.Cache
	logger   *slog.Logger
}

// NewEmbeddingMatcher wires a Provider and an optional memoization cache
// (nil disables memoization).
func NewEmbeddingMatcher(provider Provider, cache *registry.Cache, logger *slog.Logger) *EmbeddingMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingMatcher{provider: provider, cache: cache, logger: logger}
}

func (m *EmbeddingMatcher) Version() string { return "v1" }

func (m *EmbeddingMatcher) Info() Info {
	return Info{
		Version:     "v1",
		Name:        "Embedding Matcher",
		Description: "Cosine similarity between query and signifier intent embeddings.",
		Parameters: map[string]any{
			"min_similarity": map[string]any{"type": "float", "default": 0.0},
		},
		LatencyBudgetMS: 30,
	}
}

// Match embeds query and every signifier's intent text, scores by cosine
// similarity normalized into [0, 1], and drops candidates below
// min_similarity.
func (m *EmbeddingMatcher) Match(ctx context.Context, query string, signifiers []*model.Signifier, k int, params map[string]any) ([]Result, error) {
	if err := requireNonEmptyQuery(query); err != nil {
		return nil, err
	}
	if len(signifiers) == 0 {
		m.logger.Warn("embedding matcher invoked with no candidate signifiers")
		return []Result{}, nil
	}

	minSimilarity, _ := params["min_similarity"].(float64)

	queryVec, err := m.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", model.ErrInternal, err)
	}

	results := make([]Result, 0, len(signifiers))
	for _, sig := range signifiers {
		vec, err := m.signifierEmbedding(ctx, sig)
		if err != nil {
			return nil, err
		}
		sim := normalizedCosine(queryVec, vec)
		if sim < minSimilarity {
			continue
		}
		results = append(results, Result{
			SignifierID: sig.SignifierID,
			Similarity:  sim,
			Metadata: map[string]any{
				"version":  "v1",
				"provider": m.provider.Name(),
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

func (m *EmbeddingMatcher) signifierEmbedding(ctx context.Context, sig *model.Signifier) ([]float32, error) {
	text := extractSignifierText(sig)
	key := cacheKey(sig.SignifierID, text)

	if m.cache != nil {
		if raw, found, err := m.cache.Get(key); err == nil && found {
			return decodeVector(raw), nil
		}
	}

	vec, err := m.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding signifier %s: %v", model.ErrInternal, sig.SignifierID, err)
	}

	if m.cache != nil {
		if err := m.cache.Put(key, encodeVector(vec)); err != nil {
			m.logger.Warn("embedding cache put failed", "signifier_id", sig.SignifierID, "error", err)
		}
	}
	return vec, nil
}

func extractSignifierText(sig *model.Signifier) string {
	text := sig.Intent.NLText
	if intent, ok := sig.Intent.Structured["intent"].(string); ok && intent != "" {
		text = text + " " + intent
	}
	if text == "" {
		text = "unknown intent"
	}
	return text
}

func cacheKey(signifierID, text string) string {
	h := sha256.Sum256([]byte(signifierID + ":" + text))
	return fmt.Sprintf("%x", h)
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// normalizedCosine maps cosine similarity from [-1, 1] into [0, 1], returning
// 0 if either vector has zero norm.
func normalizedCosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	sim := (cos + 1) / 2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
