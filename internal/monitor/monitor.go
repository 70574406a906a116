// Package monitor re-prices watchlist entries on a schedule and raises
// alerts when a price drops or reaches the user's target.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"buywise/config"
	"buywise/internal/metrics"
	"buywise/internal/notify"
	"buywise/internal/product"
	"buywise/internal/watchlist"
)

const DefaultUserID = "anonymous"

var (
	ErrEmptyQuery     = errors.New("query is required")
	ErrInvalidTarget  = errors.New("target price must be greater than 0")
	ErrNoProductFound = errors.New("unable to find product for monitoring")
	// ErrCheckInFlight is returned when the entry is already being checked.
	ErrCheckInFlight = errors.New("price check already running for entry")
)

type Outcome string

const (
	OutcomeNoResults     Outcome = "no_results"
	OutcomeTargetReached Outcome = "target_reached"
	OutcomePriceDropped  Outcome = "price_dropped"
	OutcomeUnchanged     Outcome = "unchanged"
)

// Searcher is the uncached all-stores search.
type Searcher interface {
	SearchAll(ctx context.Context, query string) (product.ResultSet, error)
}

type Options struct {
	CycleInterval time.Duration
	CheckInterval time.Duration
	// CheckDelay spaces successive checks inside one cycle.
	CheckDelay time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CycleInterval: cfg.Monitor.CycleInterval,
		CheckInterval: cfg.Monitor.CheckInterval,
		CheckDelay:    cfg.Monitor.CheckDelay,
	}
}

type Monitor struct {
	searcher Searcher
	store    watchlist.Store
	sink     notify.Sink
	opts     Options
	log      *zap.SugaredLogger
	recorder metrics.Recorder
	limiter  *rate.Limiter

	now   func() time.Time
	newID func() uuid.UUID

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

func New(searcher Searcher, store watchlist.Store, sink notify.Sink, opts Options, log *zap.SugaredLogger, recorder metrics.Recorder) *Monitor {
	if opts.CycleInterval <= 0 {
		opts.CycleInterval = 1800 * time.Second
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 2 * time.Hour
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if recorder == nil {
		recorder = metrics.Nop
	}
	limit := rate.Inf
	if opts.CheckDelay > 0 {
		limit = rate.Every(opts.CheckDelay)
	}
	return &Monitor{
		searcher: searcher,
		store:    store,
		sink:     sink,
		opts:     opts,
		log:      log,
		recorder: recorder,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
		newID:    uuid.New,
		inflight: make(map[string]struct{}),
	}
}

type AddResult struct {
	ID               string
	Message          string
	CurrentBestPrice float64
	Entry            watchlist.Entry
}

// Add prices query once and stores the result as the entry's baseline.
// Adding the same (user, query) again replaces the earlier entry.
func (m *Monitor) Add(ctx context.Context, userID, query string, targetPrice float64) (AddResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = DefaultUserID
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return AddResult{}, ErrEmptyQuery
	}
	if targetPrice <= 0 {
		return AddResult{}, ErrInvalidTarget
	}

	results, err := m.search(ctx, query)
	if err != nil {
		return AddResult{}, fmt.Errorf("price %q: %w", query, err)
	}
	best, ok := product.BestDeal(results)
	if !ok {
		return AddResult{}, ErrNoProductFound
	}

	now := m.now()
	e := watchlist.Entry{
		ID:               watchlist.EntryID(userID, query),
		UserID:           userID,
		Query:            query,
		TargetPrice:      targetPrice,
		CurrentBestPrice: best.Price,
		BestDeal:         best,
		CreatedAt:        now,
		LastCheckedAt:    now,
	}
	if err := m.store.Put(ctx, e); err != nil {
		return AddResult{}, fmt.Errorf("save watch entry: %w", err)
	}

	m.log.Infow("watch_added",
		"id", e.ID,
		"user_id", userID,
		"query", query,
		"target_price", targetPrice,
		"current_best_price", best.Price,
	)
	return AddResult{
		ID:               e.ID,
		Message:          "Added to watchlist! Current best price: ₹" + notify.FormatPrice(best.Price),
		CurrentBestPrice: best.Price,
		Entry:            e,
	}, nil
}

// Due reports whether e was last checked more than CheckInterval ago.
func (m *Monitor) Due(e watchlist.Entry) bool {
	return m.now().Sub(e.LastCheckedAt) > m.opts.CheckInterval
}

// RunCycle checks every due entry once, oldest first, spacing checks by
// CheckDelay. A failed check is logged and retried next cycle.
func (m *Monitor) RunCycle(ctx context.Context) (int, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list watch entries: %w", err)
	}
	watchlist.SortStable(entries)

	checked := 0
	for _, e := range entries {
		if !m.Due(e) {
			continue
		}
		if err := m.limiter.Wait(ctx); err != nil {
			return checked, err
		}
		outcome, err := m.Check(ctx, e)
		if errors.Is(err, ErrCheckInFlight) {
			m.log.Infow("monitor_check_skipped", "id", e.ID, "reason", "in_flight")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return checked, ctx.Err()
			}
			m.log.Errorw("monitor_check_failed", "id", e.ID, "query", e.Query, "err", err)
			continue
		}
		checked++
		m.log.Infow("monitor_checked", "id", e.ID, "outcome", outcome)
	}
	return checked, nil
}

// Check re-prices e. The stored entry is classified and saved once with
// the new price, deal and check time before at most one notification is
// sent; target reached wins over a plain drop. A second check of the same
// entry while one is running fails with ErrCheckInFlight.
func (m *Monitor) Check(ctx context.Context, e watchlist.Entry) (Outcome, error) {
	if !m.acquire(e.ID) {
		return "", ErrCheckInFlight
	}
	defer m.release(e.ID)

	results, err := m.search(ctx, e.Query)
	if err != nil {
		return "", err
	}
	best, ok := product.BestDeal(results)
	if !ok {
		m.recorder.RecordCheck(string(OutcomeNoResults))
		return OutcomeNoResults, nil
	}

	var (
		outcome  Outcome
		previous float64
	)
	checkedAt := m.now()
	updated, err := m.store.Update(ctx, e.ID, func(cur *watchlist.Entry) error {
		outcome = classify(*cur, best.Price)
		previous = cur.CurrentBestPrice
		cur.CurrentBestPrice = best.Price
		cur.BestDeal = best
		cur.LastCheckedAt = checkedAt
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("update watch entry %s: %w", e.ID, err)
	}
	m.recorder.RecordCheck(string(outcome))

	var msg notify.Message
	switch outcome {
	case OutcomeTargetReached:
		msg = targetReachedMessage(updated)
	case OutcomePriceDropped:
		msg = priceDropMessage(updated, previous)
	default:
		return outcome, nil
	}
	msg.EventID = m.newID()
	msg.CreatedAt = updated.LastCheckedAt

	if err := m.sink.Send(ctx, msg); err != nil {
		m.log.Errorw("monitor_notify_failed", "id", e.ID, "kind", msg.Kind, "err", err)
	}
	return outcome, nil
}

func classify(e watchlist.Entry, price float64) Outcome {
	switch {
	case price <= e.TargetPrice:
		return OutcomeTargetReached
	case price < e.CurrentBestPrice:
		return OutcomePriceDropped
	default:
		return OutcomeUnchanged
	}
}

func (m *Monitor) acquire(id string) bool {
	m.inflightMu.Lock()
	defer m.inflightMu.Unlock()
	if _, busy := m.inflight[id]; busy {
		return false
	}
	m.inflight[id] = struct{}{}
	return true
}

func (m *Monitor) release(id string) {
	m.inflightMu.Lock()
	delete(m.inflight, id)
	m.inflightMu.Unlock()
}

// CheckByID checks one entry regardless of when it was last checked.
func (m *Monitor) CheckByID(ctx context.Context, id string) (Outcome, watchlist.Entry, error) {
	e, err := m.store.Get(ctx, id)
	if err != nil {
		return "", watchlist.Entry{}, err
	}
	outcome, err := m.Check(ctx, e)
	if err != nil {
		return "", e, err
	}
	updated, err := m.store.Get(ctx, id)
	if err != nil {
		return outcome, e, err
	}
	return outcome, updated, nil
}

func (m *Monitor) search(ctx context.Context, query string) (rs product.ResultSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()
	return m.searcher.SearchAll(ctx, query)
}

// Start runs a cycle immediately and then every CycleInterval until Stop.
// Calling Start on a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	m.cancel, m.done = cancel, done

	go m.loop(runCtx, done)
	m.log.Infow("monitor_started", "cycle_interval", m.opts.CycleInterval, "check_interval", m.opts.CheckInterval)
	return nil
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.opts.CycleInterval)
	defer ticker.Stop()

	for {
		if n, err := m.RunCycle(ctx); err != nil && ctx.Err() == nil {
			m.log.Errorw("monitor_cycle_failed", "err", err)
		} else if n > 0 {
			m.log.Infow("monitor_cycle_done", "checked", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels the loop and waits for it to exit or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		m.log.Infow("monitor_stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}
