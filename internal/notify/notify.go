// Package notify delivers price alerts raised by the watchlist monitor.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Kind string

const (
	KindTargetReached Kind = "target_reached"
	KindPriceDrop     Kind = "price_drop"
)

type Message struct {
	EventID       uuid.UUID `json:"event_id"`
	RecipientID   string    `json:"recipient_id"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Kind          Kind      `json:"kind"`
	WatchID       string    `json:"watch_id"`
	CurrentPrice  float64   `json:"current_price"`
	TargetPrice   float64   `json:"target_price"`
	PreviousPrice float64   `json:"previous_price,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sink delivers one message. Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, m Message) error
}

type SinkFunc func(ctx context.Context, m Message) error

func (f SinkFunc) Send(ctx context.Context, m Message) error { return f(ctx, m) }

// FormatPrice renders rupee amounts with two decimals ("1299.00").
func FormatPrice(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}

type LogSink struct {
	log *zap.SugaredLogger
}

func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, m Message) error {
	s.log.Infow("notification",
		"event_id", m.EventID.String(),
		"kind", m.Kind,
		"recipient_id", m.RecipientID,
		"watch_id", m.WatchID,
		"subject", m.Subject,
		"current_price", m.CurrentPrice,
		"target_price", m.TargetPrice,
	)
	return nil
}

// Multi sends to every sink and joins their errors.
type Multi []Sink

func (m Multi) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
