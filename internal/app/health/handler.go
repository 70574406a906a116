package health

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"buywise/internal/pkg/render"
	"buywise/internal/router"
	"buywise/internal/scraper"
)

type Handler struct {
	registry *scraper.Registry
	now      func() time.Time
}

func NewHandler(registry *scraper.Registry) *Handler {
	return &Handler{registry: registry, now: time.Now}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Get("/health", h.Handle)
}

type response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Scrapers  int       `json:"scrapers"`
}

func (h *Handler) Handle(w http.ResponseWriter, _ *http.Request) {
	render.ChiJSON(w, http.StatusOK, response{
		Status:    "healthy",
		Timestamp: h.now(),
		Scrapers:  h.registry.Len(),
	})
}

var _ router.Handler = (*Handler)(nil)
