package scraper

import (
	"net/url"

	"buywise/internal/product"
	"buywise/internal/source"
)

// MaxContainers caps how many listings are read from one search page.
const MaxContainers = 10

// Selector picks a value inside a listing container. An empty Attr reads
// the element text.
type Selector struct {
	CSS  string
	Attr string
}

func Text(css string) Selector       { return Selector{CSS: css} }
func Attr(css, attr string) Selector { return Selector{CSS: css, Attr: attr} }

// Rules describe one storefront's search page. Each field list is tried in
// order and the first non-empty match wins.
type Rules struct {
	ID         source.Source
	StoreName  string
	BaseURL    string
	SearchPath string
	QueryParam string
	Currency   string

	Containers []string
	Name       []Selector
	Price      []Selector
	Rating     []Selector
	Link       []Selector
	Image      []Selector

	// ParseRating converts the matched rating value. Defaults to CleanRating.
	ParseRating func(string) float64
}

func (r Rules) SearchURL(query string) string {
	return r.BaseURL + r.SearchPath + "?" + r.QueryParam + "=" + url.QueryEscape(query)
}

func (r Rules) currency() string {
	if r.Currency == "" {
		return product.CurrencyINR
	}
	return r.Currency
}

func (r Rules) ratingParser() func(string) float64 {
	if r.ParseRating == nil {
		return CleanRating
	}
	return r.ParseRating
}

var AmazonRules = Rules{
	ID:         source.Amazon,
	StoreName:  "Amazon",
	BaseURL:    "https://www.amazon.in",
	SearchPath: "/s",
	QueryParam: "k",
	Containers: []string{`div[data-component-type="s-search-result"]`},
	Name:       []Selector{Text("h2.a-size-mini"), Text("span.a-size-medium")},
	Price:      []Selector{Text("span.a-price-whole"), Text("span.a-offscreen")},
	Rating:     []Selector{Text("span.a-icon-alt")},
	Link:       []Selector{Attr("h2.a-size-mini a", "href")},
	Image:      []Selector{Attr("img.s-image", "src")},
}

var FlipkartRules = Rules{
	ID:         source.Flipkart,
	StoreName:  "Flipkart",
	BaseURL:    "https://www.flipkart.com",
	SearchPath: "/search",
	QueryParam: "q",
	Containers: []string{"div._1AtVbE", "div._13oc-S"},
	Name:       []Selector{Text("div._4rR01T"), Text("a.IRpwTa")},
	Price:      []Selector{Text("div._30jeq3"), Text("div._1_WHN1")},
	Rating:     []Selector{Text("div._3LWZlK")},
	Link:       []Selector{Attr("a._1fQZEK", "href"), Attr("a", "href")},
	Image:      []Selector{Attr("img._396cs4", "src")},
}

var SnapdealRules = Rules{
	ID:          source.Snapdeal,
	StoreName:   "Snapdeal",
	BaseURL:     "https://www.snapdeal.com",
	SearchPath:  "/search",
	QueryParam:  "keyword",
	Containers:  []string{"div.product-tuple-listing"},
	Name:        []Selector{Text("p.product-title")},
	Price:       []Selector{Text("span.lfloat.product-price"), Text("span.product-price")},
	Rating:      []Selector{Attr("div.filled-stars", "style")},
	Link:        []Selector{Attr("a.dp-widget-link", "href")},
	Image:       []Selector{Attr("img.product-image", "src")},
	ParseRating: WidthRating,
}

// DefaultRules is every built-in storefront in registry order.
func DefaultRules() []Rules {
	return []Rules{AmazonRules, FlipkartRules, SnapdealRules}
}
