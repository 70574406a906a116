// Package scrapertest provides canned scrapers for handler and CLI tests.
package scrapertest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"buywise/internal/product"
	"buywise/internal/scraper"
	"buywise/internal/source"
)

// Static returns Results (or Err) for every query and counts calls.
type Static struct {
	Source  source.Source
	Name    string
	Results product.ResultSet
	Err     error

	mu      sync.Mutex
	queries []string
}

func (s *Static) ID() source.Source { return s.Source }

func (s *Static) StoreName() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Source)
}

func (s *Static) Search(_ context.Context, query string) (product.ResultSet, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append(product.ResultSet(nil), s.Results...), nil
}

func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// SetResults swaps the canned results between calls.
func (s *Static) SetResults(rs product.ResultSet) {
	s.mu.Lock()
	s.Results = rs
	s.mu.Unlock()
}

func Record(store, name string, price, rating float64) product.Record {
	return product.Record{
		Name:     name,
		Price:    price,
		Rating:   rating,
		URL:      "https://" + store + ".example/p/" + name,
		Store:    store,
		Currency: product.CurrencyINR,
	}
}

// Stores returns Amazon, Flipkart and Snapdeal stubs with one listing each.
func Stores() []*Static {
	return []*Static{
		{Source: source.Amazon, Name: "Amazon", Results: product.ResultSet{Record("Amazon", "Acme Phone", 1299, 4.2)}},
		{Source: source.Flipkart, Name: "Flipkart", Results: product.ResultSet{Record("Flipkart", "Acme Phone", 1199, 3.9)}},
		{Source: source.Snapdeal, Name: "Snapdeal", Results: product.ResultSet{Record("Snapdeal", "Acme Phone Lite", 999, 2.5)}},
	}
}

func NewRegistry(t testing.TB, stubs ...*Static) *scraper.Registry {
	t.Helper()
	scrapers := make([]scraper.Scraper, 0, len(stubs))
	for _, s := range stubs {
		scrapers = append(scrapers, s)
	}
	reg, err := scraper.NewRegistry(scrapers, 0, nil)
	require.NoError(t, err)
	return reg
}
