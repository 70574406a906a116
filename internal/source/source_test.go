package source

import "testing"

func TestDetect_Amazon(t *testing.T) {
	t.Parallel()

	src, err := Detect("https://www.amazon.in/dp/B0ABCDEFGH")
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if src != Amazon {
		t.Fatalf("expected %q, got %q", Amazon, src)
	}
}

func TestDetect_FlipkartAndSnapdeal(t *testing.T) {
	t.Parallel()

	cases := map[string]Source{
		"https://www.flipkart.com/phone/p/itm123":     Flipkart,
		"https://flipkart.com/search?q=x":             Flipkart,
		"https://www.snapdeal.com/product/x/12345678": Snapdeal,
	}
	for raw, want := range cases {
		src, err := Detect(raw)
		if err != nil {
			t.Fatalf("Detect(%q) error: %v", raw, err)
		}
		if src != want {
			t.Fatalf("Detect(%q): expected %q, got %q", raw, want, src)
		}
	}
}

func TestDetect_Unsupported(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"https://example.com/x", "not a url", "notamazon.in/dp/x"} {
		if _, err := Detect(raw); err == nil {
			t.Fatalf("Detect(%q): expected error", raw)
		}
	}
}

func TestParseListAndKey(t *testing.T) {
	t.Parallel()

	got := ParseList(" Amazon, ,flipkart ")
	if len(got) != 2 || got[0] != Amazon || got[1] != Flipkart {
		t.Fatalf("unexpected list: %#v", got)
	}
	if k := Key([]Source{Snapdeal, Amazon, Snapdeal}); k != "amazon,snapdeal" {
		t.Fatalf("unexpected key: %q", k)
	}
	if Source("ebay").Valid() {
		t.Fatalf("ebay should not be valid")
	}
}

func TestProductIDFromURL(t *testing.T) {
	t.Parallel()

	if id, ok := ProductIDFromURL("https://www.amazon.in/Some-Phone/dp/B0C1234567/ref=sr_1_1"); !ok || id != "B0C1234567" {
		t.Fatalf("amazon id=%q ok=%v", id, ok)
	}
	if id, ok := ProductIDFromURL("https://www.flipkart.com/some-phone/p/itmabc123?pid=X"); !ok || id != "itmabc123" {
		t.Fatalf("flipkart id=%q ok=%v", id, ok)
	}
	if _, ok := ProductIDFromURL("https://www.snapdeal.com/product/x/1"); ok {
		t.Fatalf("snapdeal should have no id")
	}
}
