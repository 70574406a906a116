package scraper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"buywise/internal/product"
	"buywise/internal/source"
)

var ErrUnknownStore = errors.New("unknown store")

type UnknownStoreError struct {
	ID        source.Source
	Available []source.Source
}

func (e *UnknownStoreError) Error() string {
	names := make([]string, 0, len(e.Available))
	for _, id := range e.Available {
		names = append(names, string(id))
	}
	return fmt.Sprintf("unknown store %q (available: %s)", e.ID, strings.Join(names, ", "))
}

func (e *UnknownStoreError) Unwrap() error { return ErrUnknownStore }

// Registry holds one scraper per store id. Results are always concatenated
// in registry order regardless of which scraper finishes first.
type Registry struct {
	order       []source.Source
	byID        map[source.Source]Scraper
	concurrency int
	log         *zap.SugaredLogger
}

func NewRegistry(scrapers []Scraper, concurrency int, log *zap.SugaredLogger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	byID := make(map[source.Source]Scraper, len(scrapers))
	order := make([]source.Source, 0, len(scrapers))
	for _, s := range scrapers {
		if _, exists := byID[s.ID()]; exists {
			return nil, fmt.Errorf("duplicate scraper id: %s", s.ID())
		}
		byID[s.ID()] = s
		order = append(order, s.ID())
	}
	slices.SortStableFunc(order, func(a, b source.Source) int {
		return rank(a) - rank(b)
	})
	if concurrency <= 0 {
		concurrency = max(1, len(order))
	}
	return &Registry{order: order, byID: byID, concurrency: concurrency, log: log}, nil
}

// rank keeps built-in stores first in their declared order.
func rank(id source.Source) int {
	if i := slices.Index(source.All, id); i >= 0 {
		return i
	}
	return len(source.All)
}

func (r *Registry) Get(id source.Source) (Scraper, bool) {
	s, ok := r.byID[id]
	return s, ok
}

func (r *Registry) IDs() []source.Source {
	return slices.Clone(r.order)
}

func (r *Registry) Scrapers() []Scraper {
	out := make([]Scraper, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// Validate fails on the first id the registry does not know.
func (r *Registry) Validate(ids []source.Source) error {
	for _, id := range ids {
		if _, ok := r.byID[id]; !ok {
			return &UnknownStoreError{ID: id, Available: r.IDs()}
		}
	}
	return nil
}

// SearchAll queries every store. A failing or panicking scraper is logged
// and contributes nothing. The only error returned is ctx's.
func (r *Registry) SearchAll(ctx context.Context, query string) (product.ResultSet, error) {
	return r.search(ctx, query, r.order)
}

// SearchSubset validates ids before any scraper runs.
func (r *Registry) SearchSubset(ctx context.Context, query string, ids []source.Source) (product.ResultSet, error) {
	if err := r.Validate(ids); err != nil {
		return nil, err
	}
	selected := make([]source.Source, 0, len(ids))
	for _, id := range r.order {
		if slices.Contains(ids, id) {
			selected = append(selected, id)
		}
	}
	return r.search(ctx, query, selected)
}

func (r *Registry) search(ctx context.Context, query string, ids []source.Source) (product.ResultSet, error) {
	perStore := make([]product.ResultSet, len(ids))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		s := r.byID[id]
		g.Go(func() error {
			perStore[i] = r.searchOne(ctx, s, query)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := product.ResultSet{}
	for _, rs := range perStore {
		out = append(out, rs...)
	}
	return out, nil
}

func (r *Registry) searchOne(ctx context.Context, s Scraper, query string) (results product.ResultSet) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("scraper_search_failed", "store", s.ID(), "query", query, "panic", rec)
			results = nil
		}
	}()

	rs, err := s.Search(ctx, query)
	if err != nil {
		r.log.Errorw("scraper_search_failed", "store", s.ID(), "query", query, "err", err)
		return nil
	}
	return rs
}
