package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"buywise/config"
)

var ErrPublisherDisabled = errors.New("rabbitmq publisher disabled")

const (
	defaultExchange   = "events"
	defaultRoutingKey = "notifications.price.v1"
)

type PublishFunc func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error

// AMQPPublisher hands messages to the notification worker over RabbitMQ.
type AMQPPublisher struct {
	exchange   string
	routingKey string
	log        *zap.SugaredLogger

	publish PublishFunc
}

func NewAMQPPublisher(cfg *config.Config, publish PublishFunc, log *zap.SugaredLogger) *AMQPPublisher {
	ex := strings.TrimSpace(cfg.RabbitMQ.Exchange)
	if ex == "" {
		ex = defaultExchange
	}
	key := strings.TrimSpace(cfg.RabbitMQ.RoutingKey)
	if key == "" {
		key = defaultRoutingKey
	}
	return &AMQPPublisher{exchange: ex, routingKey: key, log: log, publish: publish}
}

func (p *AMQPPublisher) Send(ctx context.Context, m Message) error {
	if p.publish == nil {
		return ErrPublisherDisabled
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := p.publish(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    m.CreatedAt,
		MessageId:    m.EventID.String(),
		Type:         string(m.Kind),
		Body:         body,
	}); err != nil {
		p.log.Errorw("notification_publish_failed",
			"exchange", p.exchange,
			"routing_key", p.routingKey,
			"event_id", m.EventID.String(),
			"err", err,
		)
		return fmt.Errorf("publish notification: %w", err)
	}

	p.log.Infow("notification_published",
		"exchange", p.exchange,
		"routing_key", p.routingKey,
		"event_id", m.EventID.String(),
		"kind", m.Kind,
	)
	return nil
}
