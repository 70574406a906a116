package watchlist

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/internal/app/inngest/check"
	"buywise/internal/monitor"
	pkginngest "buywise/internal/pkg/inngest"
	"buywise/internal/pkg/render"
	"buywise/internal/router"
	"buywise/internal/watchlist"
)

type listResponse struct {
	Entries []watchlist.Entry `json:"entries"`
	Total   int               `json:"total"`
}

type ListHandler struct {
	store  watchlist.Store
	logger *zap.SugaredLogger
}

type NewListHandlerParams struct {
	fx.In

	Store  watchlist.Store
	Logger *zap.SugaredLogger
}

func NewListHandler(p NewListHandlerParams) *ListHandler {
	return &ListHandler{store: p.Store, logger: p.Logger}
}

func (h *ListHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/watchlist", h.Handle)
}

func (h *ListHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var (
		entries []watchlist.Entry
		err     error
	)
	if user := strings.TrimSpace(r.URL.Query().Get("user_id")); user != "" {
		entries, err = h.store.ListByUser(r.Context(), user)
	} else {
		entries, err = h.store.List(r.Context())
	}
	if err != nil {
		h.logger.Errorw("watchlist_list_failed", "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}
	watchlist.SortStable(entries)
	if entries == nil {
		entries = []watchlist.Entry{}
	}
	render.ChiJSON(w, http.StatusOK, listResponse{Entries: entries, Total: len(entries)})
}

type GetHandler struct {
	store  watchlist.Store
	logger *zap.SugaredLogger
}

func NewGetHandler(p NewListHandlerParams) *GetHandler {
	return &GetHandler{store: p.Store, logger: p.Logger}
}

func (h *GetHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/watchlist/{id}", h.Handle)
}

func (h *GetHandler) Handle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	e, err := h.store.Get(r.Context(), id)
	if errors.Is(err, watchlist.ErrNotFound) {
		render.ChiErr(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		h.logger.Errorw("watchlist_get_failed", "id", id, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to fetch watch entry")
		return
	}
	render.ChiJSON(w, http.StatusOK, e)
}

type checkResponse struct {
	ID      string          `json:"id"`
	Outcome monitor.Outcome `json:"outcome"`
	Entry   watchlist.Entry `json:"entry"`
}

type enqueueResponse struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
}

// CheckHandler re-prices one entry now, ignoring the check interval. With
// ?async=true it queues the durable watchlist-check job instead.
type CheckHandler struct {
	monitor *monitor.Monitor
	inngest inngestgo.Client
	logger  *zap.SugaredLogger
	now     func() time.Time
}

type NewCheckHandlerParams struct {
	fx.In

	Monitor *monitor.Monitor
	Inngest inngestgo.Client `optional:"true"`
	Logger  *zap.SugaredLogger
}

func NewCheckHandler(p NewCheckHandlerParams) *CheckHandler {
	return &CheckHandler{monitor: p.Monitor, inngest: p.Inngest, logger: p.Logger, now: time.Now}
}

func (h *CheckHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/watchlist/{id}/check", h.Handle)
}

func (h *CheckHandler) Handle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.enqueue(w, r, id)
		return
	}

	outcome, e, err := h.monitor.CheckByID(r.Context(), id)
	if errors.Is(err, watchlist.ErrNotFound) {
		render.ChiErr(w, http.StatusNotFound, "not found")
		return
	}
	if errors.Is(err, monitor.ErrCheckInFlight) {
		render.ChiErr(w, http.StatusConflict, "price check already running")
		return
	}
	if err != nil {
		h.logger.Errorw("watchlist_check_failed", "id", id, "err", err)
		render.ChiErr(w, http.StatusBadGateway, "price check failed: "+err.Error())
		return
	}
	render.ChiJSON(w, http.StatusOK, checkResponse{ID: id, Outcome: outcome, Entry: e})
}

func (h *CheckHandler) enqueue(w http.ResponseWriter, r *http.Request, id string) {
	if h.inngest == nil {
		render.ChiErr(w, http.StatusNotImplemented, "inngest disabled: set INNGEST_APP_ID to enable")
		return
	}

	eventID := check.EventID(id, h.now())
	_, err := h.inngest.Send(r.Context(), inngestgo.Event{
		ID:        inngestgo.StrPtr(eventID),
		Name:      check.CheckRequestedEventName,
		Data:      map[string]any{"watch_id": id},
		Timestamp: inngestgo.Timestamp(h.now()),
	})
	if errors.Is(err, pkginngest.ErrDisabled) {
		render.ChiErr(w, http.StatusNotImplemented, "inngest disabled: set INNGEST_APP_ID to enable")
		return
	}
	if err != nil {
		h.logger.Errorw("watchlist_check_enqueue_failed", "id", id, "err", err)
		render.ChiErr(w, http.StatusBadGateway, "failed to queue price check")
		return
	}

	h.logger.Infow("watchlist_check_enqueued", "id", id, "event_id", eventID)
	render.ChiJSON(w, http.StatusAccepted, enqueueResponse{ID: id, EventID: eventID})
}

var (
	_ router.Handler = (*ListHandler)(nil)
	_ router.Handler = (*GetHandler)(nil)
	_ router.Handler = (*CheckHandler)(nil)
)
