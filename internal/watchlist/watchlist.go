// Package watchlist stores the products users asked to be alerted about.
package watchlist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"slices"
	"strings"
	"time"

	"buywise/internal/product"
)

var ErrNotFound = errors.New("watch entry not found")

type Entry struct {
	ID               string         `json:"id" validate:"required"`
	UserID           string         `json:"user_id" validate:"required"`
	Query            string         `json:"query" validate:"required"`
	TargetPrice      float64        `json:"target_price" validate:"gt=0"`
	CurrentBestPrice float64        `json:"current_best_price" validate:"gte=0"`
	BestDeal         product.Record `json:"best_deal"`
	CreatedAt        time.Time      `json:"created_at"`
	LastCheckedAt    time.Time      `json:"last_checked_at"`
}

// EntryID is stable for a (user, query) pair, so re-adding replaces.
func EntryID(userID, query string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + strings.TrimSpace(query)))
	return "watch:" + hex.EncodeToString(sum[:])[:32]
}

// Store owns entries. Get and List hand out copies.
type Store interface {
	// Put creates the entry or replaces one with the same ID.
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
	// Update applies fn to the stored entry and persists only its check
	// fields (CurrentBestPrice, BestDeal, LastCheckedAt). It fails with
	// ErrNotFound when the entry was removed; an fn error aborts the write.
	Update(ctx context.Context, id string, fn func(*Entry) error) (Entry, error)
	Delete(ctx context.Context, id string) error
}

// applyCheck copies the check fields of next onto cur.
func applyCheck(cur, next Entry) Entry {
	cur.CurrentBestPrice = next.CurrentBestPrice
	cur.BestDeal = next.BestDeal
	cur.LastCheckedAt = next.LastCheckedAt
	return cur
}

// SortStable orders entries by CreatedAt then ID.
func SortStable(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
