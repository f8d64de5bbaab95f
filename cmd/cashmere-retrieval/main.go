// Command cashmere-retrieval runs the Cashmere Signifier Retrieval server.
//
// It communicates over stdio using JSON-RPC 2.0 (MCP protocol) and persists
// signifiers to a local directory tree (see internal/registry).
//
// Optional environment variables:
//
//	CASHMERE_CONFIG                     - path to a cashmere.toml config file
//	CASHMERE_STORAGE_ROOT                - signifier registry root directory
//	CASHMERE_GENAI_API_KEY               - embedding provider API key (v1 matcher)
//	CASHMERE_LOG_LEVEL                   - debug, info, warn, error (default: info)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aimas-cs-pub-ro/cashmere/internal/authoring"
	"github.com/aimas-cs-pub-ro/cashmere/internal/config"
	"github.com/aimas-cs-pub-ro/cashmere/internal/contextbuilder"
	"github.com/aimas-cs-pub-ro/cashmere/internal/matcher"
	"github.com/aimas-cs-pub-ro/cashmere/internal/orchestrator"
	"github.com/aimas-cs-pub-ro/cashmere/internal/ranker"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
	"github.com/aimas-cs-pub-ro/cashmere/internal/representation"
	"github.com/aimas-cs-pub-ro/cashmere/internal/scheduler"
	"github.com/aimas-cs-pub-ro/cashmere/internal/shapes"
	"github.com/aimas-cs-pub-ro/cashmere/internal/subsumption"
	"github.com/aimas-cs-pub-ro/cashmere/internal/toolkit"
	"github.com/aimas-cs-pub-ro/cashmere/internal/tools/retrieval"
	"github.com/aimas-cs-pub-ro/cashmere/internal/tools/signifier"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cashmere-retrieval: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := ""
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		configPath = os.Args[2]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.Log.Level)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	version := cfg.Server.Version
	if Version != "dev" {
		version = Version
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting cashmere-retrieval", "version", version, "storage_root", cfg.Storage.Root)

	var cache *registry.Cache
	if cfg.Cache.Path != "" {
		cache, err = registry.OpenCache(cfg.Cache.Path, "embeddings_and_shapes", cfg.Cache.Capacity)
		if err != nil {
			logger.Warn("cache unavailable, continuing without memoization", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	rep := representation.NewService(logger)
	reg, err := registry.New(cfg.Storage.Root, rep, logger)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}

	matchers := matcher.NewDefaultRegistry(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model, cache, logger)
	if err := matchers.SetDefaultVersion(cfg.Retrieval.DefaultMatcherVersion); err != nil {
		logger.Warn("configured default matcher version unavailable, keeping v0", "version", cfg.Retrieval.DefaultMatcherVersion, "error", err)
	}

	cb := contextbuilder.NewBuilder(logger)
	sse := subsumption.NewEvaluator(subsumption.MissingValuePolicy(cfg.SSE.MissingValuePolicy), cfg.SSE.EnableTypeCoercion, logger)
	sv := shapes.NewValidator(cache, logger)
	rk := ranker.New(logger,
		ranker.WithWeights(ranker.Weights{
			IntentSimilarity: cfg.Ranking.IntentSimilarityWeight,
			Shacl:            cfg.Ranking.ShaclWeight,
			SSE:              cfg.Ranking.SSEWeight,
		}),
		ranker.WithShaclGate(cfg.Ranking.EnableShaclGate),
		ranker.WithSSEGate(cfg.Ranking.EnableSSEGate),
		ranker.WithSpecificityBoost(cfg.Ranking.SpecificityBoost),
	)
	orc := orchestrator.New(reg, matchers, cb, sse, sv, rk, logger)
	authorValidator := authoring.New(false, logger)

	if cfg.Janitor.Enabled && cache != nil {
		sched := scheduler.NewScheduler(logger)
		sched.AddJob(scheduler.NewCacheStatsJob(cache, logger), time.Duration(cfg.Janitor.IntervalHours)*time.Hour)
		sched.Start(ctx)
		defer sched.Stop()
	}

	toolRegistry := toolkit.NewRegistry()
	toolRegistry.Register(signifier.NewCreateWithValidator(reg, authorValidator))
	toolRegistry.Register(signifier.NewCreateFromRDF(reg))
	toolRegistry.Register(signifier.NewGet(reg))
	toolRegistry.Register(signifier.NewUpdate(reg))
	toolRegistry.Register(signifier.NewUpdateStatus(reg))
	toolRegistry.Register(signifier.NewDelete(reg))
	toolRegistry.Register(signifier.NewList(reg))
	toolRegistry.Register(signifier.NewFindByProperty(reg))
	toolRegistry.Register(retrieval.NewRetrieve(orc, cfg.Retrieval.EnableSSE, cfg.Retrieval.DeadlineMS))

	server := toolkit.NewServer(toolRegistry, toolkit.ServerInfo{
		Name:    cfg.Server.Name,
		Version: version,
	}, logger)

	return server.Run(ctx)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
