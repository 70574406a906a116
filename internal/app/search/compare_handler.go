package search

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/internal/pkg/render"
	"buywise/internal/product"
	"buywise/internal/router"
	searchsvc "buywise/internal/search"
	"buywise/internal/source"
)

// CompareHandler groups an all-stores search by store and picks out the
// cheapest listings.
type CompareHandler struct {
	orchestrator *searchsvc.Orchestrator
	logger       *zap.SugaredLogger
}

type NewCompareHandlerParams struct {
	fx.In

	Orchestrator *searchsvc.Orchestrator
	Logger       *zap.SugaredLogger
}

func NewCompareHandler(p NewCompareHandlerParams) *CompareHandler {
	return &CompareHandler{orchestrator: p.Orchestrator, logger: p.Logger}
}

func (h *CompareHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/compare", h.Handle)
}

type compareRecord struct {
	product.Record
	ProductID string `json:"product_id,omitempty"`
}

type compareResponse struct {
	Query         string                     `json:"query"`
	Comparison    map[string][]compareRecord `json:"comparison"`
	BestPrice     float64                    `json:"best_price"`
	BestDeals     []compareRecord            `json:"best_deals"`
	TotalProducts int                        `json:"total_products"`
}

func (h *CompareHandler) Handle(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		render.ChiErr(w, http.StatusBadRequest, "Query parameter required")
		return
	}

	results, err := h.orchestrator.Search(r.Context(), query, nil)
	if err != nil {
		h.logger.Errorw("compare_failed", "query", query, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	comparison := make(map[string][]compareRecord)
	for store, rs := range product.GroupByStore(results) {
		comparison[store] = withProductIDs(rs)
	}
	bestPrice, bestDeals := product.BestDeals(results)

	render.ChiJSON(w, http.StatusOK, compareResponse{
		Query:         query,
		Comparison:    comparison,
		BestPrice:     bestPrice,
		BestDeals:     withProductIDs(bestDeals),
		TotalProducts: len(results),
	})
}

func withProductIDs(rs product.ResultSet) []compareRecord {
	out := make([]compareRecord, 0, len(rs))
	for _, rec := range rs {
		id, _ := source.ProductIDFromURL(rec.URL)
		out = append(out, compareRecord{Record: rec, ProductID: id})
	}
	return out
}

var _ router.Handler = (*CompareHandler)(nil)
