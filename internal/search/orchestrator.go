// Package search answers product queries from the result cache, falling
// back to the scraper registry on a miss.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"buywise/internal/product"
	"buywise/internal/source"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Stores is the slice of scraper.Registry the orchestrator needs.
type Stores interface {
	IDs() []source.Source
	Validate(ids []source.Source) error
	SearchAll(ctx context.Context, query string) (product.ResultSet, error)
	SearchSubset(ctx context.Context, query string, ids []source.Source) (product.ResultSet, error)
}

type Cache interface {
	Get(ctx context.Context, query, store string) (product.ResultSet, bool)
	Set(ctx context.Context, query string, results product.ResultSet, store string)
}

type Orchestrator struct {
	stores Stores
	cache  Cache
	log    *zap.SugaredLogger
}

func NewOrchestrator(stores Stores, cache Cache, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{stores: stores, cache: cache, log: log}
}

// Search runs query against storeIDs, or every store when storeIDs is
// empty. Unknown ids fail before any cache or network access.
func (o *Orchestrator) Search(ctx context.Context, query string, storeIDs []source.Source) (product.ResultSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "query is required"}
	}
	if err := o.stores.Validate(storeIDs); err != nil {
		return nil, err
	}

	subset := o.scope(storeIDs)
	key := source.Key(subset)

	if rs, ok := o.cache.Get(ctx, query, key); ok && len(rs) > 0 {
		o.log.Infow("search_cache_hit", "query", query, "stores", key, "results", len(rs))
		return rs, nil
	}

	var (
		rs  product.ResultSet
		err error
	)
	if len(subset) == 0 {
		rs, err = o.stores.SearchAll(ctx, query)
	} else {
		rs, err = o.stores.SearchSubset(ctx, query, subset)
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	// An empty set usually means every store failed; fetch again next time.
	if len(rs) > 0 {
		o.cache.Set(ctx, query, rs, key)
	}
	o.log.Infow("search_completed", "query", query, "stores", key, "results", len(rs))
	return rs, nil
}

// scope returns nil when ids name every registered store, so a full list
// shares the all-stores cache entry.
func (o *Orchestrator) scope(ids []source.Source) []source.Source {
	if len(ids) == 0 {
		return nil
	}
	all := o.stores.IDs()
	if source.Key(ids) == source.Key(all) {
		return nil
	}
	return ids
}
