package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
)

// Registry holds every registered matcher version and the default version
// used when a caller does not specify one.
type Registry struct {
	mu       sync.RWMutex
	matchers map[string]Matcher
	defaultV string
	logger   *slog.Logger
}

// NewRegistry returns an empty registry. Use NewDefaultRegistry to get the
// standard v0 + v1 wiring.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{matchers: make(map[string]Matcher), defaultV: "v0", logger: logger}
}

// NewDefaultRegistry always registers the v0 string-contains matcher and the
// v1 embedding matcher. v1 uses a genai-backed provider when one can be
// built, and the deterministic hash provider if no API key is configured or
// the genai health probe fails; that provider error is logged, not returned.
func NewDefaultRegistry(ctx context.Context, genaiAPIKey, genaiModel string, cache *registry.Cache, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	reg := NewRegistry(logger)
	reg.Register(NewStringMatcher(logger))

	provider, err := NewGenAIProvider(ctx, genaiAPIKey, genaiModel)
	if err != nil {
		logger.Warn("genai embedding provider unavailable, falling back to deterministic embeddings", "error", err)
		provider = NewHashProvider(64)
	}
	reg.Register(NewEmbeddingMatcher(provider, cache, logger))
	return reg
}

// Register adds or replaces the matcher for its own Version().
func (r *Registry) Register(m Matcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.matchers[m.Version()]; exists {
		r.logger.Warn("overwriting already-registered matcher version", "version", m.Version())
	}
	r.matchers[m.Version()] = m
}

// GetMatcher returns the matcher for version, or the default if version is
// empty.
func (r *Registry) GetMatcher(version string) (Matcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if version == "" {
		version = r.defaultV
	}
	m, ok := r.matchers[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", model.ErrUnknownVersion, version, r.listVersionsLocked())
	}
	return m, nil
}

// Match resolves version (or the default) and delegates to it.
func (r *Registry) Match(ctx context.Context, query string, signifiers []*model.Signifier, k int, version string, params map[string]any) ([]Result, error) {
	m, err := r.GetMatcher(version)
	if err != nil {
		return nil, err
	}
	return m.Match(ctx, query, signifiers, k, params)
}

// SetDefaultVersion changes the version resolved when callers pass "".
func (r *Registry) SetDefaultVersion(version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matchers[version]; !ok {
		return fmt.Errorf("%w: %q (available: %v)", model.ErrUnknownVersion, version, r.listVersionsLocked())
	}
	r.defaultV = version
	return nil
}

// DefaultVersion returns the currently configured default version.
func (r *Registry) DefaultVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultV
}

// ListVersions returns every registered version, sorted.
func (r *Registry) ListVersions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listVersionsLocked()
}

func (r *Registry) listVersionsLocked() []string {
	versions := make([]string, 0, len(r.matchers))
	for v := range r.matchers {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// GetAllInfo returns the Info for every registered matcher, sorted by
// version.
func (r *Registry) GetAllInfo() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.matchers))
	for _, v := range r.listVersionsLocked() {
		infos = append(infos, r.matchers[v].Info())
	}
	return infos
}
