package fx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"buywise/config"
	"buywise/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingHandler struct{}

func (pingHandler) RegisterRoute(r *chi.Mux) { r.Get("/ping", pingHandler{}.Handle) }
func (pingHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func newTestMux(cfg *config.Config, handlers ...router.Handler) *chi.Mux {
	return NewMux(muxParams{
		Cfg:      cfg,
		Logger:   zap.NewNop().Sugar(),
		Handlers: handlers,
	})
}

func TestNewMux_CORSPreflight_AnyOriginByDefault(t *testing.T) {
	r := newTestMux(&config.Config{}, pingHandler{})

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestNewMux_CORSPreflight_RestrictedOrigins(t *testing.T) {
	cfg := &config.Config{CORSOrigins: []string{"https://buywise.example"}}
	r := newTestMux(cfg, pingHandler{})

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://buywise.example")
	req.Header.Set("Access-Control-Request-Method", "GET")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://buywise.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "GET")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewMux_RegistersHandlersAndJSONNotFound(t *testing.T) {
	r := newTestMux(&config.Config{}, pingHandler{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Endpoint not found", body["error"])
}
