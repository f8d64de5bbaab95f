package scheduler

import (
	"context"
	"log/slog"

	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
)

// CacheStatsJob periodically logs the embedding/SHACL cache's entry count.
// internal/registry.Cache already evicts on every Put once it reaches
// capacity, so this job does not prune anything itself — it exists to
// surface cache growth in logs on the cadence config.JanitorConfig
// controls, the way an operator would otherwise have to check manually.
type CacheStatsJob struct {
	cache  *registry.Cache
	logger *slog.Logger
}

// NewCacheStatsJob builds a CacheStatsJob over cache.
func NewCacheStatsJob(cache *registry.Cache, logger *slog.Logger) *CacheStatsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStatsJob{cache: cache, logger: logger}
}

func (j *CacheStatsJob) Name() string { return "cache_stats" }

func (j *CacheStatsJob) Run(_ context.Context) error {
	count, err := j.cache.Stats()
	if err != nil {
		return err
	}
	j.logger.Info("cache sweep", "entries", count)
	return nil
}
