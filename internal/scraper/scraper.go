// Package scraper turns storefront search pages into product records.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"buywise/internal/metrics"
	"buywise/internal/product"
	"buywise/internal/source"
)

type Scraper interface {
	ID() source.Source
	StoreName() string
	Search(ctx context.Context, query string) (product.ResultSet, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, rawURL string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return f(ctx, rawURL)
}

// HTMLScraper applies a Rules value to fetched search pages.
type HTMLScraper struct {
	rules    Rules
	base     *url.URL
	fetcher  Fetcher
	log      *zap.SugaredLogger
	recorder metrics.Recorder
}

var _ Scraper = (*HTMLScraper)(nil)

func NewHTMLScraper(rules Rules, fetcher Fetcher, log *zap.SugaredLogger, recorder metrics.Recorder) (*HTMLScraper, error) {
	if strings.TrimSpace(string(rules.ID)) == "" {
		return nil, fmt.Errorf("scraper rules missing id")
	}
	if len(rules.Containers) == 0 {
		return nil, fmt.Errorf("scraper %s: no container selectors", rules.ID)
	}
	base, err := url.Parse(rules.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("scraper %s: invalid base url %q", rules.ID, rules.BaseURL)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if recorder == nil {
		recorder = metrics.Nop
	}
	return &HTMLScraper{
		rules:    rules,
		base:     base,
		fetcher:  fetcher,
		log:      log.With("store", rules.ID),
		recorder: recorder,
	}, nil
}

func (s *HTMLScraper) ID() source.Source { return s.rules.ID }

func (s *HTMLScraper) StoreName() string { return s.rules.StoreName }

// Search never returns fetch failures; they are logged and yield an empty set.
func (s *HTMLScraper) Search(ctx context.Context, query string) (product.ResultSet, error) {
	start := time.Now()
	searchURL := s.rules.SearchURL(query)

	body, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		s.log.Warnw("scrape_fetch_failed", "url", searchURL, "err", err)
		s.recorder.RecordScrape(s.rules.StoreName, 0, time.Since(start))
		return product.ResultSet{}, nil
	}

	results := s.Parse(body)
	s.recorder.RecordScrape(s.rules.StoreName, len(results), time.Since(start))
	s.log.Infow("scrape_completed", "query", query, "results", len(results))
	return results, nil
}

// Parse extracts at most MaxContainers records from a search page.
func (s *HTMLScraper) Parse(body []byte) product.ResultSet {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.log.Warnw("scrape_parse_failed", "err", err)
		return product.ResultSet{}
	}

	containers := s.containers(doc)
	out := make(product.ResultSet, 0, containers.Length())
	containers.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= MaxContainers {
			return false
		}
		rec, ok := s.parseContainer(i, sel)
		if ok {
			out = append(out, rec)
		}
		return true
	})
	return out
}

func (s *HTMLScraper) containers(doc *goquery.Document) *goquery.Selection {
	for _, css := range s.rules.Containers {
		if sel := doc.Find(css); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Find(s.rules.Containers[0])
}

func (s *HTMLScraper) parseContainer(index int, sel *goquery.Selection) (rec product.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warnw("scrape_container_failed", "index", index, "panic", r)
			rec, ok = product.Record{}, false
		}
	}()

	rec = product.Record{
		Name:     CleanText(firstFragment(sel, s.rules.Name)),
		Price:    CleanPrice(first(sel, s.rules.Price)),
		Rating:   s.rules.ratingParser()(first(sel, s.rules.Rating)),
		URL:      s.resolve(first(sel, s.rules.Link)),
		Image:    strings.TrimSpace(first(sel, s.rules.Image)),
		Store:    s.rules.StoreName,
		Currency: s.rules.currency(),
	}
	return rec, rec.Valid()
}

func (s *HTMLScraper) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(ref).String()
}

func first(sel *goquery.Selection, selectors []Selector) string {
	for _, rule := range selectors {
		match := sel.Find(rule.CSS).First()
		if match.Length() == 0 {
			continue
		}
		var v string
		if rule.Attr == "" {
			v = match.Text()
		} else {
			v, _ = match.Attr(rule.Attr)
		}
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// firstFragment is first for fields that keep their markup: element rules
// yield inner HTML and attribute values come back escaped.
func firstFragment(sel *goquery.Selection, selectors []Selector) string {
	for _, rule := range selectors {
		match := sel.Find(rule.CSS).First()
		if match.Length() == 0 {
			continue
		}
		var v string
		if rule.Attr == "" {
			v, _ = match.Html()
		} else {
			attr, _ := match.Attr(rule.Attr)
			v = html.EscapeString(attr)
		}
		if strings.TrimSpace(CleanText(v)) != "" {
			return v
		}
	}
	return ""
}
