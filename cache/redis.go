package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
)

const RedisKeyPrefix = "buywise:cache:"

// NewRedis returns a nil client when REDIS_HOST is unset.
func NewRedis(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Redis.Host) == "" {
		log.Infow("redis_disabled", "reason", "missing REDIS_HOST")
		return nil, nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	opts := &redis.Options{
		Addr:     addr,
		Username: strings.TrimSpace(cfg.Redis.User),
		Password: cfg.Redis.Password,
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Redis.Scheme), "rediss") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				return fmt.Errorf("redis ping failed: %w", err)
			}
			log.Infow("redis_connected", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := client.Close(); err != nil {
				log.Warnw("redis_close_failed", "err", err)
			}
			return nil
		},
	})

	return client, nil
}

// RedisBackend sets the redis TTL to the cache TTL, so stale keys also
// expire server side.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client, prefix: RedisKeyPrefix}
}

func (r *RedisBackend) Load(ctx context.Context, key string) (Entry, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return e, true, nil
}

func (r *RedisBackend) Store(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, b, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
