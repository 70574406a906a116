package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"buywise/internal/metrics"
	"buywise/internal/router"
)

type Handler struct {
	next http.Handler
}

func NewHandler(gatherer prometheus.Gatherer) *Handler {
	return &Handler{next: metrics.Handler(gatherer)}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Get("/metrics", h.Handle)
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	h.next.ServeHTTP(w, r)
}

var _ router.Handler = (*Handler)(nil)
