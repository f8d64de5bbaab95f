// Package config loads cashmere-retrieval's configuration from a TOML file
// and environment variables, following the same "env overrides file
// overrides defaults" layering the rest of this project's ambient stack
// uses.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the retrieval server.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Server    ServerConfig    `toml:"server"`
	GenAI     GenAIConfig     `toml:"genai"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Ranking   RankingConfig   `toml:"ranking"`
	SSE       SSEConfig       `toml:"sse"`
	Cache     CacheConfig     `toml:"cache"`
	Log       LogConfig       `toml:"log"`
	Janitor   JanitorConfig   `toml:"janitor"`
}

// StorageConfig holds the signifier registry's on-disk layout.
type StorageConfig struct {
	Root string `toml:"root"` // directory holding json/, rdf/ and indexes/
}

// ServerConfig holds process metadata.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// GenAIConfig holds the embedding provider's credentials. When APIKey is
// empty, the v1 matcher falls back to a deterministic hash-based provider
// instead of failing registration (see internal/matcher/registry.go).
type GenAIConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// RetrievalConfig holds the orchestrator's per-request defaults.
type RetrievalConfig struct {
	DefaultPipeline       []string `toml:"default_pipeline"`
	DefaultMatcherVersion string   `toml:"default_matcher_version"`
	DefaultK              int      `toml:"default_k"`
	DeadlineMS            int      `toml:"deadline_ms"`
	EnableSSE             bool     `toml:"enable_sse"`
}

// RankingConfig holds the ranker's signal weights and gate policy.
type RankingConfig struct {
	IntentSimilarityWeight float64 `toml:"intent_similarity_weight"`
	ShaclWeight            float64 `toml:"shacl_weight"`
	SSEWeight              float64 `toml:"sse_weight"`
	EnableShaclGate        bool    `toml:"enable_shacl_gate"`
	EnableSSEGate          bool    `toml:"enable_sse_gate"`
	SpecificityBoost       float64 `toml:"specificity_boost"`
}

// SSEConfig holds the subsumption evaluator's missing-value policy.
type SSEConfig struct {
	MissingValuePolicy string `toml:"missing_value_policy"` // fail, ignore, pass
	EnableTypeCoercion bool   `toml:"enable_type_coercion"`
}

// CacheConfig holds the bbolt-backed embedding/SHACL-validation cache.
type CacheConfig struct {
	Path     string `toml:"path"`
	Capacity int    `toml:"capacity"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// JanitorConfig schedules the periodic cache statistics job, which logs the
// cache's entry count and evicts nothing.
type JanitorConfig struct {
	Enabled       bool `toml:"enabled"`
	IntervalHours int  `toml:"interval_hours"`
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. CASHMERE_CONFIG environment variable
//  3. ./cashmere.toml (current directory)
//  4. ~/.config/cashmere/cashmere.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{Root: "./data/signifiers"},
		Server: ServerConfig{
			Name:    "cashmere-retrieval",
			Version: "0.1.0",
		},
		GenAI: GenAIConfig{Model: "gemini-embedding-001"},
		Retrieval: RetrievalConfig{
			DefaultPipeline:       []string{"IM", "SSE", "SV", "RP"},
			DefaultMatcherVersion: "v0",
			DefaultK:              10,
			DeadlineMS:            500,
			EnableSSE:             true,
		},
		Ranking: RankingConfig{
			IntentSimilarityWeight: 0.7,
			ShaclWeight:            0.2,
			SSEWeight:              0.1,
			EnableShaclGate:        true,
			EnableSSEGate:          false,
			SpecificityBoost:       0.01,
		},
		SSE: SSEConfig{
			MissingValuePolicy: "fail",
			EnableTypeCoercion: true,
		},
		Cache: CacheConfig{
			Path:     "./data/cache.db",
			Capacity: 10000,
		},
		Log: LogConfig{Level: "info"},
		Janitor: JanitorConfig{
			Enabled:       false,
			IntervalHours: 6,
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath determines which config file to use. Returns empty
// string if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("CASHMERE_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("cashmere.toml"); err == nil {
		return "cashmere.toml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/cashmere/cashmere.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	envOverride("CASHMERE_STORAGE_ROOT", &c.Storage.Root)
	envOverride("CASHMERE_GENAI_API_KEY", &c.GenAI.APIKey)
	envOverride("CASHMERE_GENAI_MODEL", &c.GenAI.Model)
	envOverride("CASHMERE_DEFAULT_MATCHER_VERSION", &c.Retrieval.DefaultMatcherVersion)
	envOverride("CASHMERE_LOG_LEVEL", &c.Log.Level)
	envOverride("CASHMERE_CACHE_PATH", &c.Cache.Path)
	envOverride("CASHMERE_SSE_MISSING_VALUE_POLICY", &c.SSE.MissingValuePolicy)

	if v := os.Getenv("CASHMERE_DEADLINE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.DeadlineMS = n
		}
	}
	if v := os.Getenv("CASHMERE_DEFAULT_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.DefaultK = n
		}
	}
	if v := os.Getenv("CASHMERE_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Cache.Capacity = n
		}
	}
	if v := os.Getenv("CASHMERE_ENABLE_SSE"); v != "" {
		c.Retrieval.EnableSSE = v == "true" || v == "1"
	}
	if v := os.Getenv("CASHMERE_ENABLE_SHACL_GATE"); v != "" {
		c.Ranking.EnableShaclGate = v == "true" || v == "1"
	}
	if v := os.Getenv("CASHMERE_ENABLE_SSE_GATE"); v != "" {
		c.Ranking.EnableSSEGate = v == "true" || v == "1"
	}
	if v := os.Getenv("CASHMERE_JANITOR_ENABLED"); v != "" {
		c.Janitor.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("CASHMERE_JANITOR_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Janitor.IntervalHours = n
		}
	}
}

// Validate checks that required fields are present and internally
// consistent.
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return fmt.Errorf("storage.root must not be empty")
	}
	switch c.SSE.MissingValuePolicy {
	case "fail", "ignore", "pass":
	default:
		return fmt.Errorf("invalid sse.missing_value_policy: %q (must be \"fail\", \"ignore\", or \"pass\")", c.SSE.MissingValuePolicy)
	}
	for _, stage := range c.Retrieval.DefaultPipeline {
		switch stage {
		case "IM", "SSE", "SV", "RP":
		default:
			return fmt.Errorf("invalid retrieval.default_pipeline stage: %q", stage)
		}
	}
	if c.Retrieval.DefaultK <= 0 {
		return fmt.Errorf("retrieval.default_k must be positive")
	}
	return nil
}

// envOverride sets *dst to the value of the named env var, if it is
// non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
