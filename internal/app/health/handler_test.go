package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buywise/internal/scraper/scrapertest"
)

func TestHealth(t *testing.T) {
	h := NewHandler(scrapertest.NewRegistry(t, scrapertest.Stores()...))
	h.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

	mux := chi.NewRouter()
	h.RegisterRoute(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2024-05-01T09:30:00Z", body["timestamp"])
	assert.Equal(t, float64(3), body["scrapers"])
}
