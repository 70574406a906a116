package cache

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
	"buywise/internal/metrics"
)

type NewBackendParams struct {
	fx.In

	Cfg    *config.Config
	Redis  *redis.Client `optional:"true"`
	Logger *zap.SugaredLogger
}

// NewBackend picks the storage named by CACHE_BACKEND. A redis backend
// without a configured client falls back to memory.
func NewBackend(p NewBackendParams) (Backend, error) {
	switch p.Cfg.Cache.Backend {
	case "memory":
		p.Logger.Infow("cache_backend", "backend", "memory")
		return NewMemoryBackend(), nil
	case "redis":
		if p.Redis == nil {
			p.Logger.Warnw("cache_backend_fallback", "want", "redis", "backend", "memory")
			return NewMemoryBackend(), nil
		}
		p.Logger.Infow("cache_backend", "backend", "redis")
		return NewRedisBackend(p.Redis), nil
	default:
		p.Logger.Infow("cache_backend", "backend", "file", "dir", p.Cfg.Cache.Dir)
		return NewFileBackend(p.Cfg.Cache.Dir)
	}
}

type NewResultCacheParams struct {
	fx.In

	Backend  Backend
	Cfg      *config.Config
	Logger   *zap.SugaredLogger
	Recorder metrics.Recorder `optional:"true"`
}

func NewResultCacheFromConfig(p NewResultCacheParams) *ResultCache {
	return NewResultCache(p.Backend, p.Cfg.Cache.TTL, p.Logger, WithRecorder(p.Recorder))
}
