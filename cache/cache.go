// Package cache stores scrape results keyed by normalized query and store.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"buywise/internal/metrics"
	"buywise/internal/product"
)

// Entry is the persisted form of one cached search.
type Entry struct {
	Timestamp time.Time         `json:"timestamp"`
	Query     string            `json:"query"`
	Store     string            `json:"store"`
	Results   product.ResultSet `json:"results"`
}

// Backend moves entries in and out of storage. Load reports false for a
// missing key.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Store(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const DefaultTTL = 1800 * time.Second

type ResultCache struct {
	backend  Backend
	ttl      time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger
	recorder metrics.Recorder
}

type Option func(*ResultCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) { c.now = now }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(c *ResultCache) {
		if r != nil {
			c.recorder = r
		}
	}
}

func NewResultCache(backend Backend, ttl time.Duration, log *zap.SugaredLogger, opts ...Option) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := &ResultCache{
		backend:  backend,
		ttl:      ttl,
		now:      time.Now,
		log:      log,
		recorder: metrics.Nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) TTL() time.Duration { return c.ttl }

// Get never surfaces backend errors; they read as a miss.
func (c *ResultCache) Get(ctx context.Context, query, store string) (product.ResultSet, bool) {
	key := Key(query, store)

	e, ok, err := c.backend.Load(ctx, key)
	if err != nil {
		c.log.Warnw("cache_read_failed", "query", query, "store", store, "err", err)
		c.recorder.RecordCacheLookup(false)
		return nil, false
	}
	if !ok {
		c.recorder.RecordCacheLookup(false)
		return nil, false
	}

	if c.now().Sub(e.Timestamp) > c.ttl {
		if err := c.backend.Delete(ctx, key); err != nil {
			c.log.Warnw("cache_delete_failed", "query", query, "store", store, "err", err)
		}
		c.recorder.RecordCacheLookup(false)
		return nil, false
	}

	c.recorder.RecordCacheLookup(true)
	c.log.Debugw("cache_hit", "query", query, "store", store, "results", len(e.Results))
	if e.Results == nil {
		return product.ResultSet{}, true
	}
	return e.Results, true
}

// Set overwrites any entry for the key. Write failures are logged only.
func (c *ResultCache) Set(ctx context.Context, query string, results product.ResultSet, store string) {
	if results == nil {
		results = product.ResultSet{}
	}
	e := Entry{
		Timestamp: c.now(),
		Query:     query,
		Store:     store,
		Results:   results,
	}
	if err := c.backend.Store(ctx, Key(query, store), e, c.ttl); err != nil {
		c.log.Warnw("cache_write_failed", "query", query, "store", store, "err", err)
	}
}

// Key is md5 of the normalized query, suffixed with "_"+store when store
// is set.
func Key(query, store string) string {
	raw := Normalize(query)
	if store != "" {
		raw += "_" + store
	}
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Normalize lower-cases, trims and collapses whitespace.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
