package watchlist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"buywise/db"
	"buywise/internal/product"
)

// SQLStore persists entries in the watch_entries table.
type SQLStore struct {
	db        *sqlx.DB
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(conn *sqlx.DB, logger *zap.SugaredLogger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQLStore{db: conn, logger: logger, validator: validator.New()}
}

type entryRow struct {
	ID               string  `db:"id"`
	UserID           string  `db:"user_id"`
	Query            string  `db:"query"`
	TargetPrice      float64 `db:"target_price"`
	CurrentBestPrice float64 `db:"current_best_price"`
	BestDeal         string  `db:"best_deal"`
	CreatedAt        int64   `db:"created_at"`
	LastCheckedAt    int64   `db:"last_checked_at"`
}

func toRow(e Entry) (entryRow, error) {
	deal, err := json.Marshal(e.BestDeal)
	if err != nil {
		return entryRow{}, fmt.Errorf("marshal best deal: %w", err)
	}
	return entryRow{
		ID:               e.ID,
		UserID:           e.UserID,
		Query:            e.Query,
		TargetPrice:      e.TargetPrice,
		CurrentBestPrice: e.CurrentBestPrice,
		BestDeal:         string(deal),
		CreatedAt:        e.CreatedAt.UnixMilli(),
		LastCheckedAt:    e.LastCheckedAt.UnixMilli(),
	}, nil
}

func (r entryRow) entry() (Entry, error) {
	var deal product.Record
	if r.BestDeal != "" {
		if err := json.Unmarshal([]byte(r.BestDeal), &deal); err != nil {
			return Entry{}, fmt.Errorf("decode best deal for %s: %w", r.ID, err)
		}
	}
	return Entry{
		ID:               r.ID,
		UserID:           r.UserID,
		Query:            r.Query,
		TargetPrice:      r.TargetPrice,
		CurrentBestPrice: r.CurrentBestPrice,
		BestDeal:         deal,
		CreatedAt:        time.UnixMilli(r.CreatedAt).UTC(),
		LastCheckedAt:    time.UnixMilli(r.LastCheckedAt).UTC(),
	}, nil
}

const selectColumns = `id, user_id, query, target_price, current_best_price, best_deal, created_at, last_checked_at`

func (s *SQLStore) Put(ctx context.Context, e Entry) error {
	if err := s.validator.Struct(e); err != nil {
		return fmt.Errorf("validate watch entry: %w", err)
	}
	row, err := toRow(e)
	if err != nil {
		return err
	}

	q := s.db.Rebind(`
INSERT INTO watch_entries (
  id,
  user_id,
  query,
  target_price,
  current_best_price,
  best_deal,
  created_at,
  last_checked_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  user_id = excluded.user_id,
  query = excluded.query,
  target_price = excluded.target_price,
  current_best_price = excluded.current_best_price,
  best_deal = excluded.best_deal,
  created_at = excluded.created_at,
  last_checked_at = excluded.last_checked_at
`)
	if _, err := s.db.ExecContext(ctx, q,
		row.ID, row.UserID, row.Query, row.TargetPrice, row.CurrentBestPrice,
		row.BestDeal, row.CreatedAt, row.LastCheckedAt,
	); err != nil {
		return fmt.Errorf("upsert watch_entries: %w", err)
	}

	s.logger.Infow("watch_entry_saved", "id", e.ID, "user_id", e.UserID)
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Entry, error) {
	var row entryRow
	q := s.db.Rebind(`SELECT ` + selectColumns + ` FROM watch_entries WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get watch entry %s: %w", id, err)
	}
	return row.entry()
}

func (s *SQLStore) List(ctx context.Context) ([]Entry, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM watch_entries ORDER BY created_at, id`)
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM watch_entries WHERE user_id = ? ORDER BY created_at, id`, userID)
}

func (s *SQLStore) list(ctx context.Context, q string, args ...any) ([]Entry, error) {
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list watch entries: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	SortStable(out)
	return out, nil
}

// Update reads the row and writes back price, deal and check time in one
// transaction. Other columns are left as stored.
func (s *SQLStore) Update(ctx context.Context, id string, fn func(*Entry) error) (Entry, error) {
	return db.Tx(ctx, s.db, func(tx *sqlx.Tx) (Entry, error) {
		var cur entryRow
		sel := tx.Rebind(`SELECT ` + selectColumns + ` FROM watch_entries WHERE id = ?`)
		if err := tx.GetContext(ctx, &cur, sel, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return Entry{}, ErrNotFound
			}
			return Entry{}, fmt.Errorf("get watch entry %s: %w", id, err)
		}
		e, err := cur.entry()
		if err != nil {
			return Entry{}, err
		}

		next := e
		if err := fn(&next); err != nil {
			return Entry{}, err
		}
		e = applyCheck(e, next)
		row, err := toRow(e)
		if err != nil {
			return Entry{}, err
		}

		q := tx.Rebind(`
UPDATE watch_entries SET
  current_best_price = ?,
  best_deal = ?,
  last_checked_at = ?
WHERE id = ?
`)
		res, err := tx.ExecContext(ctx, q, row.CurrentBestPrice, row.BestDeal, row.LastCheckedAt, id)
		if err != nil {
			return Entry{}, fmt.Errorf("update watch entry %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Entry{}, err
		}
		if n == 0 {
			return Entry{}, ErrNotFound
		}
		return e, nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM watch_entries WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete watch entry %s: %w", id, err)
	}
	return nil
}
