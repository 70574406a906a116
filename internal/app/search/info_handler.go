package search

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"buywise/internal/pkg/render"
	"buywise/internal/router"
	"buywise/internal/scraper"
	"buywise/internal/source"
)

const (
	apiName    = "Price Comparison API"
	apiVersion = "1.0"
)

// InfoHandler describes the API at "/".
type InfoHandler struct {
	registry *scraper.Registry
}

func NewInfoHandler(registry *scraper.Registry) *InfoHandler {
	return &InfoHandler{registry: registry}
}

func (h *InfoHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/", h.Handle)
}

type infoResponse struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Endpoints       []string        `json:"endpoints"`
	AvailableStores []source.Source `json:"available_stores"`
}

func (h *InfoHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	render.ChiJSON(w, http.StatusOK, infoResponse{
		Name:    apiName,
		Version: apiVersion,
		Endpoints: []string{
			"/search?q=product_name",
			"/search?q=product_name&stores=amazon,flipkart",
			"/search?q=product_name&sort=price",
			"/compare?q=product_name",
			"/stores",
			"/health",
			"/watchlist",
		},
		AvailableStores: h.registry.IDs(),
	})
}

var _ router.Handler = (*InfoHandler)(nil)
