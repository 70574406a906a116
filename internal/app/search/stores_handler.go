package search

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"buywise/internal/pkg/render"
	"buywise/internal/router"
	"buywise/internal/scraper"
)

type StoresHandler struct {
	registry *scraper.Registry
}

func NewStoresHandler(registry *scraper.Registry) *StoresHandler {
	return &StoresHandler{registry: registry}
}

func (h *StoresHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/stores", h.Handle)
}

type storeInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type storesResponse struct {
	Stores map[string]storeInfo `json:"stores"`
	Total  int                  `json:"total"`
}

func (h *StoresHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	stores := make(map[string]storeInfo, h.registry.Len())
	for _, s := range h.registry.Scrapers() {
		stores[string(s.ID())] = storeInfo{Name: s.StoreName(), Status: "active"}
	}
	render.ChiJSON(w, http.StatusOK, storesResponse{Stores: stores, Total: len(stores)})
}

var _ router.Handler = (*StoresHandler)(nil)
