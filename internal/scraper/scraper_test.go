package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"buywise/internal/product"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func staticFetcher(body []byte, gotURL *string) FetcherFunc {
	return func(_ context.Context, rawURL string) ([]byte, error) {
		if gotURL != nil {
			*gotURL = rawURL
		}
		return body, nil
	}
}

func newScraper(t *testing.T, rules Rules, f Fetcher) *HTMLScraper {
	t.Helper()
	s, err := NewHTMLScraper(rules, f, nil, nil)
	require.NoError(t, err)
	return s
}

func TestAmazonSearch_SkipsListingWithoutPrice(t *testing.T) {
	var gotURL string
	s := newScraper(t, AmazonRules, staticFetcher(fixture(t, "amazon_search.html"), &gotURL))

	rs, err := s.Search(context.Background(), "acme phone")
	require.NoError(t, err)
	require.Equal(t, "https://www.amazon.in/s?k=acme+phone", gotURL)

	require.Len(t, rs, 1)
	got := rs[0]
	require.Equal(t, "Acme Phone 128GB", got.Name)
	require.InDelta(t, 1299.0, got.Price, 1e-9)
	require.InDelta(t, 4.2, got.Rating, 1e-9)
	require.Equal(t, "Amazon", got.Store)
	require.Equal(t, "INR", got.Currency)
	require.Equal(t, "https://www.amazon.in/Acme-Phone-128GB/dp/B0C1234567/ref=sr_1_1", got.URL)
	require.Equal(t, "https://m.media-amazon.com/images/I/acme.jpg", got.Image)
}

func TestFlipkartSearch_FallbackSelectors(t *testing.T) {
	var gotURL string
	s := newScraper(t, FlipkartRules, staticFetcher(fixture(t, "flipkart_search.html"), &gotURL))

	rs, err := s.Search(context.Background(), "acme")
	require.NoError(t, err)
	require.Equal(t, "https://www.flipkart.com/search?q=acme", gotURL)

	require.Len(t, rs, 2)
	require.Equal(t, "Acme Phone (Blue, 128 GB)", rs[0].Name)
	require.InDelta(t, 1199.0, rs[0].Price, 1e-9)
	require.InDelta(t, 4.4, rs[0].Rating, 1e-9)
	require.Equal(t, "https://www.flipkart.com/acme-phone/p/itm123abc?pid=MOB1", rs[0].URL)

	require.Equal(t, "Acme USB-C Cable & Adapter", rs[1].Name)
	require.InDelta(t, 249.0, rs[1].Price, 1e-9)
	require.Zero(t, rs[1].Rating)
	require.Equal(t, "https://www.flipkart.com/acme-cable/p/itm999zzz", rs[1].URL)
}

func TestSnapdealSearch_WidthRating(t *testing.T) {
	var gotURL string
	s := newScraper(t, SnapdealRules, staticFetcher(fixture(t, "snapdeal_search.html"), &gotURL))

	rs, err := s.Search(context.Background(), "acme phone")
	require.NoError(t, err)
	require.Equal(t, "https://www.snapdeal.com/search?keyword=acme+phone", gotURL)

	require.Len(t, rs, 2)
	require.InDelta(t, 1349.0, rs[0].Price, 1e-9)
	require.InDelta(t, 4.2, rs[0].Rating, 1e-9)
	require.Equal(t, "https://www.snapdeal.com/product/acme-phone/123456", rs[0].URL)
	require.InDelta(t, 499.0, rs[1].Price, 1e-9)
	require.Empty(t, rs[1].URL)
}

func TestSearch_FetchFailureYieldsEmptySet(t *testing.T) {
	s := newScraper(t, AmazonRules, FetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}))

	rs, err := s.Search(context.Background(), "phone")
	require.NoError(t, err)
	require.NotNil(t, rs)
	require.Empty(t, rs)
}

func TestParse_CapsContainers(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := range MaxContainers + 5 {
		fmt.Fprintf(&b, `<div class="product-tuple-listing"><p class="product-title">Item %d</p><span class="product-price">Rs. %d</span></div>`, i, 100+i)
	}
	b.WriteString("</body></html>")

	s := newScraper(t, SnapdealRules, staticFetcher(nil, nil))
	rs := s.Parse([]byte(b.String()))
	require.Len(t, rs, MaxContainers)
	require.Equal(t, "Item 0", rs[0].Name)
}

func TestParse_RecoversFromContainerPanic(t *testing.T) {
	rules := SnapdealRules
	rules.ParseRating = func(style string) float64 {
		if strings.Contains(style, "99%") {
			panic("bad rating markup")
		}
		return WidthRating(style)
	}
	page := `<html><body>
<div class="product-tuple-listing"><p class="product-title">Broken</p><span class="product-price">Rs. 10</span><div class="filled-stars" style="width:99%"></div></div>
<div class="product-tuple-listing"><p class="product-title">Fine</p><span class="product-price">Rs. 20</span><div class="filled-stars" style="width:60%"></div></div>
</body></html>`

	s := newScraper(t, rules, staticFetcher(nil, nil))
	rs := s.Parse([]byte(page))
	require.Equal(t, product.ResultSet{{
		Name:     "Fine",
		Price:    20,
		Rating:   3,
		Store:    "Snapdeal",
		Currency: "INR",
	}}, rs)
}

func TestParse_NameKeepsEscapedBrackets(t *testing.T) {
	rules := SnapdealRules
	rules.Name = []Selector{Text("p.product-title"), Attr("a.dp-widget-link", "title")}
	page := `<html><body>
<div class="product-tuple-listing"><p class="product-title">Phone &lt;Pro&gt; <b>5G</b></p><span class="product-price">Rs. 10</span></div>
<div class="product-tuple-listing"><a class="dp-widget-link" title="Case <Slim> &amp; Clear"></a><span class="product-price">Rs. 20</span></div>
</body></html>`

	s := newScraper(t, rules, staticFetcher(nil, nil))
	rs := s.Parse([]byte(page))
	require.Len(t, rs, 2)
	require.Equal(t, "Phone <Pro> 5G", rs[0].Name)
	require.Equal(t, "Case <Slim> & Clear", rs[1].Name)
}

func TestNewHTMLScraper_RejectsBadRules(t *testing.T) {
	_, err := NewHTMLScraper(Rules{ID: "x", BaseURL: "https://x.test"}, nil, nil, nil)
	require.Error(t, err)

	_, err = NewHTMLScraper(Rules{ID: "x", BaseURL: "::", Containers: []string{"div"}}, nil, nil, nil)
	require.Error(t, err)
}
