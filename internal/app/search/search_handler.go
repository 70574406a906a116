package search

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
	"buywise/internal/pkg/render"
	"buywise/internal/product"
	"buywise/internal/router"
	"buywise/internal/scraper"
	searchsvc "buywise/internal/search"
	"buywise/internal/source"
)

type SearchHandler struct {
	orchestrator *searchsvc.Orchestrator
	registry     *scraper.Registry
	cfg          *config.Config
	logger       *zap.SugaredLogger
	now          func() time.Time
}

type NewSearchHandlerParams struct {
	fx.In

	Orchestrator *searchsvc.Orchestrator
	Registry     *scraper.Registry
	Cfg          *config.Config
	Logger       *zap.SugaredLogger
}

func NewSearchHandler(p NewSearchHandlerParams) *SearchHandler {
	return &SearchHandler{
		orchestrator: p.Orchestrator,
		registry:     p.Registry,
		cfg:          p.Cfg,
		logger:       p.Logger,
		now:          time.Now,
	}
}

func (h *SearchHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/search", h.Handle)
}

type searchFilters struct {
	Stores    any     `json:"stores"`
	MinRating float64 `json:"min_rating"`
	SortBy    string  `json:"sort_by"`
}

type searchResponse struct {
	Query        string            `json:"query"`
	TotalResults int               `json:"total_results"`
	SearchTime   time.Time         `json:"search_time"`
	Filters      searchFilters     `json:"filters"`
	Results      product.ResultSet `json:"results"`
}

type searchParams struct {
	query     string
	stores    []source.Source
	sortBy    string
	minRating float64
	limit     int
}

func (h *SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	p, err := h.parse(r)
	if err != nil {
		render.ChiErrWith(w, http.StatusBadRequest, err.Error(), map[string]any{"example": "/search?q=iphone"})
		return
	}
	if unknown := unknownStores(h.registry, p.stores); len(unknown) > 0 {
		render.ChiErrWith(w, http.StatusBadRequest, fmt.Sprintf("Invalid stores: %v", unknown), map[string]any{
			"available_stores": h.registry.IDs(),
		})
		return
	}

	results, err := h.orchestrator.Search(r.Context(), p.query, p.stores)
	if err != nil {
		var unknown *scraper.UnknownStoreError
		if errors.As(err, &unknown) {
			render.ChiErrWith(w, http.StatusBadRequest, err.Error(), map[string]any{
				"available_stores": h.registry.IDs(),
			})
			return
		}
		h.logger.Errorw("search_failed", "query", p.query, "err", err)
		render.ChiErrWith(w, http.StatusInternalServerError, "Search failed: "+err.Error(), map[string]any{"query": p.query})
		return
	}

	filtered := product.Limit(product.Sort(product.Filter(results, p.minRating), product.SortKey(p.sortBy)), p.limit)

	var stores any = "all"
	if len(p.stores) > 0 {
		stores = p.stores
	}
	render.ChiJSON(w, http.StatusOK, searchResponse{
		Query:        p.query,
		TotalResults: len(filtered),
		SearchTime:   h.now(),
		Filters: searchFilters{
			Stores:    stores,
			MinRating: p.minRating,
			SortBy:    p.sortBy,
		},
		Results: filtered,
	})
}

func (h *SearchHandler) parse(r *http.Request) (searchParams, error) {
	q := r.URL.Query()
	p := searchParams{
		query:     strings.TrimSpace(q.Get("q")),
		stores:    source.ParseList(q.Get("stores")),
		sortBy:    strings.TrimSpace(q.Get("sort")),
		minRating: h.cfg.MinRating,
		limit:     h.cfg.ResultsLimit,
	}
	if p.query == "" {
		return p, errors.New(`Query parameter "q" is required`)
	}
	if p.sortBy == "" {
		p.sortBy = string(product.SortByPrice)
	}
	if raw := strings.TrimSpace(q.Get("min_rating")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return p, fmt.Errorf("invalid min_rating %q", raw)
		}
		p.minRating = v
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return p, fmt.Errorf("invalid limit %q", raw)
		}
		p.limit = v
	}
	return p, nil
}

func unknownStores(reg *scraper.Registry, ids []source.Source) []source.Source {
	var out []source.Source
	for _, id := range ids {
		if _, ok := reg.Get(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

var _ router.Handler = (*SearchHandler)(nil)
