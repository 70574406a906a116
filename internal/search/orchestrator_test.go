package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buywise/cache"
	"buywise/internal/product"
	"buywise/internal/scraper"
	"buywise/internal/source"
)

type countingScraper struct {
	id    source.Source
	price float64
	calls atomic.Int32
}

func (s *countingScraper) ID() source.Source { return s.id }
func (s *countingScraper) StoreName() string { return string(s.id) }

func (s *countingScraper) Search(_ context.Context, query string) (product.ResultSet, error) {
	s.calls.Add(1)
	if s.price == 0 {
		return product.ResultSet{}, nil
	}
	return product.ResultSet{{Name: query + " @ " + string(s.id), Price: s.price, Store: string(s.id), Currency: "INR"}}, nil
}

type fixture struct {
	amazon, flipkart *countingScraper
	orch             *Orchestrator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	amazon := &countingScraper{id: source.Amazon, price: 1299}
	flipkart := &countingScraper{id: source.Flipkart, price: 1199}
	reg, err := scraper.NewRegistry([]scraper.Scraper{amazon, flipkart}, 2, nil)
	require.NoError(t, err)
	c := cache.NewResultCache(cache.NewMemoryBackend(), time.Hour, nil)
	return fixture{amazon: amazon, flipkart: flipkart, orch: NewOrchestrator(reg, c, nil)}
}

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Search(context.Background(), "   ", nil)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "query", ve.Field)
}

func TestSearch_UnknownStoreFailsBeforeIO(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Search(context.Background(), "phone", []source.Source{"ebay"})
	require.ErrorIs(t, err, scraper.ErrUnknownStore)
	require.Zero(t, f.amazon.calls.Load())
}

func TestSearch_CachesPerStoreSubset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	all, err := f.orch.Search(ctx, "phone", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	again, err := f.orch.Search(ctx, "Phone ", nil)
	require.NoError(t, err)
	require.Equal(t, all, again)
	require.EqualValues(t, 1, f.amazon.calls.Load())

	// Naming every store shares the all-stores entry.
	_, err = f.orch.Search(ctx, "phone", []source.Source{source.Flipkart, source.Amazon})
	require.NoError(t, err)
	require.EqualValues(t, 1, f.amazon.calls.Load())

	only, err := f.orch.Search(ctx, "phone", []source.Source{source.Flipkart})
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.Equal(t, "flipkart", only[0].Store)
	require.EqualValues(t, 2, f.flipkart.calls.Load())
	require.EqualValues(t, 1, f.amazon.calls.Load())
}

func TestSearch_EmptyResultsAreRefetched(t *testing.T) {
	amazon := &countingScraper{id: source.Amazon}
	reg, err := scraper.NewRegistry([]scraper.Scraper{amazon}, 1, nil)
	require.NoError(t, err)
	c := cache.NewResultCache(cache.NewMemoryBackend(), time.Hour, nil)
	orch := NewOrchestrator(reg, c, nil)
	ctx := context.Background()

	rs, err := orch.Search(ctx, "phone", nil)
	require.NoError(t, err)
	require.Empty(t, rs)

	// The store comes back.
	amazon.price = 1299
	rs, err = orch.Search(ctx, "phone", nil)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.EqualValues(t, 2, amazon.calls.Load())

	// An empty entry written by another process still reads as a miss.
	c.Set(ctx, "laptop", product.ResultSet{}, "")
	rs, err = orch.Search(ctx, "laptop", nil)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.EqualValues(t, 3, amazon.calls.Load())
}
