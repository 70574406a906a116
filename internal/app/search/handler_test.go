package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"buywise/cache"
	"buywise/config"
	"buywise/internal/product"
	"buywise/internal/router"
	"buywise/internal/scraper/scrapertest"
	searchsvc "buywise/internal/search"
)

type fixture struct {
	mux   *chi.Mux
	stubs []*scrapertest.Static
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stubs := scrapertest.Stores()
	stubs[0].SetResults(product.ResultSet{{
		Name:     "Acme Phone",
		Price:    1299,
		Rating:   4.2,
		URL:      "https://www.amazon.in/Acme-Phone/dp/B0C1234567",
		Store:    "Amazon",
		Currency: product.CurrencyINR,
	}})
	reg := scrapertest.NewRegistry(t, stubs...)
	rc := cache.NewResultCache(cache.NewMemoryBackend(), time.Hour, nil)
	orch := searchsvc.NewOrchestrator(reg, rc, nil)

	cfg := &config.Config{ResultsLimit: 20, MinRating: 3.0}
	log := zap.NewNop().Sugar()

	handlers := []router.Handler{
		NewInfoHandler(reg),
		NewStoresHandler(reg),
		NewSearchHandler(NewSearchHandlerParams{Orchestrator: orch, Registry: reg, Cfg: cfg, Logger: log}),
		NewCompareHandler(NewCompareHandlerParams{Orchestrator: orch, Logger: log}),
	}
	mux := chi.NewRouter()
	for _, h := range handlers {
		h.RegisterRoute(mux)
	}
	return &fixture{mux: mux, stubs: stubs}
}

func (f *fixture) get(t *testing.T, target string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func names(t *testing.T, v any) []string {
	t.Helper()
	items, ok := v.([]any)
	require.True(t, ok, "expected list, got %T", v)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(map[string]any)["store"].(string))
	}
	return out
}

func TestSearch_DefaultsFilterAndSortByPrice(t *testing.T) {
	f := newFixture(t)

	code, body := f.get(t, "/search?q=phone")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "phone", body["query"])
	assert.Equal(t, float64(2), body["total_results"])
	assert.Equal(t, []string{"Flipkart", "Amazon"}, names(t, body["results"]))

	filters := body["filters"].(map[string]any)
	assert.Equal(t, "all", filters["stores"])
	assert.Equal(t, "price", filters["sort_by"])
	assert.Equal(t, 3.0, filters["min_rating"])
	assert.NotEmpty(t, body["search_time"])
}

func TestSearch_SubsetSortAndLimit(t *testing.T) {
	f := newFixture(t)

	code, body := f.get(t, "/search?q=phone&stores=amazon,Snapdeal&min_rating=0&sort=rating&limit=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"Amazon"}, names(t, body["results"]))
	assert.Equal(t, []any{"amazon", "snapdeal"}, body["filters"].(map[string]any)["stores"])
	assert.Equal(t, 0, f.stubs[1].Calls())
}

func TestSearch_UsesCache(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		code, _ := f.get(t, "/search?q=Phone")
		require.Equal(t, http.StatusOK, code)
	}
	f.get(t, "/search?q=phone")
	assert.Equal(t, 1, f.stubs[0].Calls())
}

func TestSearch_BadRequests(t *testing.T) {
	f := newFixture(t)

	code, body := f.get(t, "/search")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, `Query parameter "q" is required`, body["error"])
	assert.Equal(t, "/search?q=iphone", body["example"])

	code, body = f.get(t, "/search?q=phone&stores=amazon,ebay")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid stores: [ebay]", body["error"])
	assert.Equal(t, []any{"amazon", "flipkart", "snapdeal"}, body["available_stores"])
	assert.Equal(t, 0, f.stubs[0].Calls())

	code, _ = f.get(t, "/search?q=phone&limit=-1")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.get(t, "/search?q=phone&min_rating=high")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCompare_GroupsAndBestDeals(t *testing.T) {
	f := newFixture(t)

	code, body := f.get(t, "/compare?q=phone")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["total_products"])
	assert.Equal(t, 999.0, body["best_price"])
	assert.Equal(t, []string{"Snapdeal"}, names(t, body["best_deals"]))

	comparison := body["comparison"].(map[string]any)
	require.Len(t, comparison, 3)
	amazon := comparison["Amazon"].([]any)[0].(map[string]any)
	assert.Equal(t, "B0C1234567", amazon["product_id"])
	_, hasID := comparison["Flipkart"].([]any)[0].(map[string]any)["product_id"]
	assert.False(t, hasID)

	code, body = f.get(t, "/compare")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Query parameter required", body["error"])
}

func TestStoresAndInfo(t *testing.T) {
	f := newFixture(t)

	code, body := f.get(t, "/stores")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["total"])
	amazon := body["stores"].(map[string]any)["amazon"].(map[string]any)
	assert.Equal(t, "Amazon", amazon["name"])
	assert.Equal(t, "active", amazon["status"])

	code, body = f.get(t, "/")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, apiName, body["name"])
	assert.Equal(t, []any{"amazon", "flipkart", "snapdeal"}, body["available_stores"])
}
