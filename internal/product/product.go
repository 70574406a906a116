// Package product holds the normalized listing record shared by scrapers,
// the result cache and the watchlist monitor.
package product

import (
	"sort"
	"strings"
)

const CurrencyINR = "INR"

// Record is one normalized listing. Scrapers only emit records with a
// non-empty Name and Price > 0.
type Record struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
	URL      string  `json:"url"`
	Image    string  `json:"image"`
	Store    string  `json:"store"`
	Currency string  `json:"currency"`
}

// Valid reports whether r satisfies the emit rule.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Name) != "" && r.Price > 0
}

// ResultSet is ordered by scrape order.
type ResultSet []Record

// BestDeal returns the record with the lowest positive price. Ties keep the
// earliest record.
func BestDeal(rs ResultSet) (Record, bool) {
	var (
		best  Record
		found bool
	)
	for _, r := range rs {
		if r.Price <= 0 {
			continue
		}
		if !found || r.Price < best.Price {
			best = r
			found = true
		}
	}
	return best, found
}

type SortKey string

const (
	SortByPrice  SortKey = "price"
	SortByRating SortKey = "rating"
	SortByName   SortKey = "name"
)

// Filter keeps records rated at least minRating.
func Filter(rs ResultSet, minRating float64) ResultSet {
	out := make(ResultSet, 0, len(rs))
	for _, r := range rs {
		if r.Rating >= minRating {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders a copy of rs. Unknown keys keep scrape order.
func Sort(rs ResultSet, key SortKey) ResultSet {
	out := append(ResultSet(nil), rs...)
	switch key {
	case SortByPrice:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortByRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}
	return out
}

func Limit(rs ResultSet, n int) ResultSet {
	if n < 0 || len(rs) <= n {
		return rs
	}
	return rs[:n]
}

// GroupByStore buckets records by store display name, keeping scrape order
// inside each bucket.
func GroupByStore(rs ResultSet) map[string]ResultSet {
	out := make(map[string]ResultSet)
	for _, r := range rs {
		out[r.Store] = append(out[r.Store], r)
	}
	return out
}

// BestDeals returns every record priced at the minimum positive price.
func BestDeals(rs ResultSet) (float64, ResultSet) {
	best, ok := BestDeal(rs)
	if !ok {
		return 0, ResultSet{}
	}
	var out ResultSet
	for _, r := range rs {
		if r.Price == best.Price {
			out = append(out, r)
		}
	}
	return best.Price, out
}
