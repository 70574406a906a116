// Package check is the durable "watchlist-check" job: an event names one
// watch entry, or every entry of a user, and each is re-priced in its own
// step.
package check

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/internal/monitor"
	"buywise/internal/watchlist"
)

const (
	FunctionID              = "watchlist-check"
	CheckRequestedEventName = "watchlist/check.requested"
)

type CheckRequestedEventData struct {
	WatchID string `json:"watch_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

type Result struct {
	WatchID      string          `json:"watch_id"`
	Outcome      monitor.Outcome `json:"outcome"`
	CurrentPrice float64         `json:"current_price"`
}

// Checker is the part of monitor.Monitor the job drives.
type Checker interface {
	CheckByID(ctx context.Context, id string) (monitor.Outcome, watchlist.Entry, error)
}

type CheckFunction struct {
	checker Checker
	store   watchlist.Store
	logger  *zap.SugaredLogger
}

type NewCheckFunctionParams struct {
	fx.In

	Monitor *monitor.Monitor
	Store   watchlist.Store
	Logger  *zap.SugaredLogger
}

func NewCheckFunction(p NewCheckFunctionParams) *CheckFunction {
	return &CheckFunction{checker: p.Monitor, store: p.Store, logger: p.Logger}
}

func (f *CheckFunction) Handle(ctx context.Context, input inngestgo.Input[CheckRequestedEventData]) (any, error) {
	ids, err := step.Run(ctx, "resolve-entries", func(ctx context.Context) ([]string, error) {
		ids, err := f.Resolve(ctx, input.Event.Data)
		if err != nil {
			return nil, inngestgo.NoRetryError(err)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		res, err := step.Run(ctx, "check-"+id, func(ctx context.Context) (Result, error) {
			return f.CheckOne(ctx, id)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	f.logger.Infow("inngest_watchlist_check_finished", "entries", len(results))
	return map[string]any{"results": results}, nil
}

// Resolve turns the event into the entry ids to check.
func (f *CheckFunction) Resolve(ctx context.Context, data CheckRequestedEventData) ([]string, error) {
	if id := strings.TrimSpace(data.WatchID); id != "" {
		return []string{id}, nil
	}
	user := strings.TrimSpace(data.UserID)
	if user == "" {
		return nil, errors.New("event needs watch_id or user_id")
	}
	entries, err := f.store.ListByUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", user, err)
	}
	watchlist.SortStable(entries)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// CheckOne re-prices id. A missing entry is not retried.
func (f *CheckFunction) CheckOne(ctx context.Context, id string) (Result, error) {
	outcome, e, err := f.checker.CheckByID(ctx, id)
	if errors.Is(err, watchlist.ErrNotFound) {
		return Result{}, inngestgo.NoRetryError(err)
	}
	if err != nil {
		f.logger.Errorw("inngest_step_failed", "step", "check-"+id, "err", err)
		return Result{}, err
	}
	f.logger.Infow("inngest_watchlist_checked", "id", id, "outcome", outcome, "current_price", e.CurrentBestPrice)
	return Result{WatchID: id, Outcome: outcome, CurrentPrice: e.CurrentBestPrice}, nil
}

// EventID dedupes check requests for one entry within the same minute.
func EventID(watchID string, at time.Time) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(watchID) + "@" + at.UTC().Truncate(time.Minute).Format(time.RFC3339)))
	return "check:" + hex.EncodeToString(sum[:16])
}
