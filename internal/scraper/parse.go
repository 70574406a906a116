package scraper

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

var (
	priceChars  = regexp.MustCompile(`[^\d,.]`)
	firstNumber = regexp.MustCompile(`(\d+\.?\d*)`)
	widthValue  = regexp.MustCompile(`width\s*:\s*(\d+(?:\.\d+)?)\s*%`)

	strictPolicy = bluemonday.StrictPolicy()
)

const MaxRating = 5.0

// CleanPrice keeps digits, commas and dots, drops the commas and parses the
// remainder. Anything unparsable is 0.
func CleanPrice(text string) float64 {
	cleaned := priceChars.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	// "Rs. 1,299." leaves stray dots at either end.
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.Sign() <= 0 {
		return 0
	}
	return d.InexactFloat64()
}

// CleanRating returns the first number in text, clamped to [0, 5].
func CleanRating(text string) float64 {
	m := firstNumber.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return clampRating(v)
}

// WidthRating reads star widths like style="width:84%" as a 0-5 rating
// rounded to one decimal.
func WidthRating(style string) float64 {
	m := widthValue.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return clampRating(math.Round(w/20*10) / 10)
}

// CleanText turns an HTML fragment into plain text: tags are dropped
// (script and style bodies included), entities decoded and whitespace
// collapsed. Escaped angle brackets survive as literal text.
func CleanText(text string) string {
	text = html.UnescapeString(strictPolicy.Sanitize(text))
	return strings.Join(strings.Fields(text), " ")
}

func clampRating(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxRating:
		return MaxRating
	default:
		return v
	}
}
