package source

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

type Source string

const (
	Amazon   Source = "amazon"
	Flipkart Source = "flipkart"
	Snapdeal Source = "snapdeal"
)

// All lists the supported stores in registry order.
var All = []Source{Amazon, Flipkart, Snapdeal}

func (s Source) Valid() bool {
	switch s {
	case Amazon, Flipkart, Snapdeal:
		return true
	default:
		return false
	}
}

// ParseList splits a comma separated store list ("amazon, Flipkart") into
// lower-cased ids. Empty parts are dropped; it does not check membership.
func ParseList(raw string) []Source {
	var out []Source
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, Source(p))
		}
	}
	return out
}

// Key renders a set of stores as a stable, order independent string.
func Key(ids []Source) string {
	parts := make([]string, 0, len(ids))
	seen := make(map[Source]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		parts = append(parts, string(id))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func Detect(rawURL string) (Source, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL (missing scheme/host): %q", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case hostMatches(host, "amazon.in") || hostMatches(host, "amazon.com"):
		return Amazon, nil
	case hostMatches(host, "flipkart.com"):
		return Flipkart, nil
	case hostMatches(host, "snapdeal.com"):
		return Snapdeal, nil
	default:
		return "", fmt.Errorf("unsupported URL host %q (only Amazon/Flipkart/Snapdeal are supported)", host)
	}
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

var (
	amazonASIN   = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	flipkartItem = regexp.MustCompile(`/p/([^?/]+)`)
)

// ProductIDFromURL extracts the store's own product identifier (Amazon ASIN,
// Flipkart item id). The second return is false when none can be found.
func ProductIDFromURL(rawURL string) (string, bool) {
	src, err := Detect(rawURL)
	if err != nil {
		return "", false
	}

	var re *regexp.Regexp
	switch src {
	case Amazon:
		re = amazonASIN
	case Flipkart:
		re = flipkartItem
	default:
		return "", false
	}

	m := re.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}
