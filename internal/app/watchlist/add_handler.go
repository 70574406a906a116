package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/internal/monitor"
	"buywise/internal/pkg/render"
	"buywise/internal/router"
)

const maxBodyBytes = 1 << 20

type addRequest struct {
	UserID      string  `json:"user_id"`
	Query       string  `json:"query" validate:"required"`
	TargetPrice float64 `json:"target_price" validate:"gt=0"`
}

type addResponse struct {
	Message          string  `json:"message"`
	WatchlistID      string  `json:"watchlist_id"`
	CurrentBestPrice float64 `json:"current_best_price"`
	MonitoringActive bool    `json:"monitoring_active"`
}

// AddHandler prices a query once and starts watching it.
type AddHandler struct {
	monitor   *monitor.Monitor
	validator *validator.Validate
	logger    *zap.SugaredLogger
}

type NewAddHandlerParams struct {
	fx.In

	Monitor *monitor.Monitor
	Logger  *zap.SugaredLogger
}

func NewAddHandler(p NewAddHandlerParams) *AddHandler {
	return &AddHandler{
		monitor:   p.Monitor,
		validator: validator.New(),
		logger:    p.Logger,
	}
}

func (h *AddHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/watchlist", h.Handle)
	r.Post("/add-to-watchlist", h.Handle)
}

func (h *AddHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := h.validator.Struct(req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	res, err := h.monitor.Add(r.Context(), req.UserID, req.Query, req.TargetPrice)
	switch {
	case errors.Is(err, monitor.ErrNoProductFound):
		render.ChiErr(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, monitor.ErrEmptyQuery), errors.Is(err, monitor.ErrInvalidTarget):
		render.ChiErr(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Errorw("watchlist_add_failed", "query", req.Query, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "Watchlist failed: "+err.Error())
		return
	}

	render.ChiJSON(w, http.StatusOK, addResponse{
		Message:          res.Message,
		WatchlistID:      res.ID,
		CurrentBestPrice: res.CurrentBestPrice,
		MonitoringActive: h.monitor.Running(),
	})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Query":
			msgs = append(msgs, "query is required")
		case "TargetPrice":
			msgs = append(msgs, "target_price must be greater than 0")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

var _ router.Handler = (*AddHandler)(nil)
