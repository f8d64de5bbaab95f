package matcher

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"google.golang.org/genai"
)

// Provider produces a fixed-dimensionality embedding vector for a piece of
// text. v1 of the embedding matcher is backed by whichever Provider its
// registry could construct (spec.md §6, "Embedding provider fallback").
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
	Dimensions() int
}

// genaiProvider calls a hosted embedding model via google.golang.org/genai,
// mirroring the embedding engine wiring used elsewhere in the pack.
type genaiProvider struct {
	client *genai.Client
	model  string
	dims   int32
}

// NewGenAIProvider builds a genai-backed Provider. It issues one embedding
// call as a health probe; if that call fails, construction fails so the
// matcher registry can fall back to the deterministic provider instead.
func NewGenAIProvider(ctx context.Context, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai provider requires a non-empty api key")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("building genai client: %w", err)
	}
	p := &genaiProvider{client: client, model: model, dims: 768}
	if _, err := p.Embed(ctx, "health probe"); err != nil {
		return nil, fmt.Errorf("genai health probe failed: %w", err)
	}
	return p, nil
}

func (p *genaiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := p.client.Models.EmbedContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: int32Ptr(p.dims)})
	if err != nil {
		return nil, fmt.Errorf("genai embed content: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("genai returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}

func (p *genaiProvider) Name() string    { return "genai:" + p.model }
func (p *genaiProvider) Dimensions() int { return int(p.dims) }

func int32Ptr(i int32) *int32 { return &i }

// hashProvider is a deterministic, network-free embedding fallback: it
// derives a fixed-length float vector from a SHA-256 of the text so that
// identical text always maps to the same vector and unrelated text maps to
// (with high probability) unrelated vectors.
type hashProvider struct {
	dims int
}

// NewHashProvider builds the deterministic fallback provider used when no
// genai client can be constructed.
func NewHashProvider(dims int) Provider {
	if dims <= 0 {
		dims = 64
	}
	return &hashProvider{dims: dims}
}

func (p *hashProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dims)
	block := 0
	seed := []byte(text)
	for i := 0; i < p.dims; i++ {
		if i%8 == 0 {
			h := sha256.Sum256(append(seed, byte(block)))
			seed = h[:]
			block++
		}
		offset := (i % 8) * 4
		bits := binary.BigEndian.Uint32(seed[offset : offset+4])
		vec[i] = float32(bits) / float32(math.MaxUint32)
	}
	return vec, nil
}

func (p *hashProvider) Name() string    { return "hash-fallback" }
func (p *hashProvider) Dimensions() int { return p.dims }
