package scheduler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
)

func TestCacheStatsJobReportsEntryCount(t *testing.T) {
	cache, err := registry.OpenCache(filepath.Join(t.TempDir(), "cache.db"), "test", 0)
	require.NoError(t, err)
	defer cache.Close()
	require.NoError(t, cache.Put("k1", []byte("v1")))

	job := NewCacheStatsJob(cache, nil)
	require.Equal(t, "cache_stats", job.Name())
	require.NoError(t, job.Run(context.Background()))
}
