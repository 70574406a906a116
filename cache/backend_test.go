package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"buywise/config"
)

func TestNewBackend_Selection(t *testing.T) {
	cfg, err := config.NewConfig(config.NewViper())
	require.NoError(t, err)
	log := zap.NewNop().Sugar()

	cfg.Cache.Backend = "memory"
	b, err := NewBackend(NewBackendParams{Cfg: cfg, Logger: log})
	require.NoError(t, err)
	require.IsType(t, &MemoryBackend{}, b)

	cfg.Cache.Backend = "redis"
	b, err = NewBackend(NewBackendParams{Cfg: cfg, Logger: log})
	require.NoError(t, err)
	require.IsType(t, &MemoryBackend{}, b, "no redis client falls back to memory")

	cfg.Cache.Backend = "file"
	cfg.Cache.Dir = t.TempDir()
	b, err = NewBackend(NewBackendParams{Cfg: cfg, Logger: log})
	require.NoError(t, err)
	require.IsType(t, &FileBackend{}, b)
}
