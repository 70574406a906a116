package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
)

// Consumer drains the notification queue into a delivery sink.
type Consumer struct {
	cfg     *config.Config
	channel *amqp.Channel
	sink    Sink
	logger  *zap.SugaredLogger

	consumerTag string
}

type NewConsumerParams struct {
	fx.In

	Config  *config.Config
	Channel *amqp.Channel `optional:"true"`
	Sink    Sink          `name:"delivery"`
	Logger  *zap.SugaredLogger
}

func NewConsumer(p NewConsumerParams) *Consumer {
	return &Consumer{
		cfg:         p.Config,
		channel:     p.Channel,
		sink:        p.Sink,
		logger:      p.Logger,
		consumerTag: "notifyworker",
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	if c.cfg == nil || strings.TrimSpace(c.cfg.RabbitMQ.URL) == "" || c.channel == nil {
		c.logger.Infow("notifyworker_disabled", "reason", "missing rabbitmq config or channel")
		return nil
	}

	if c.cfg.RabbitMQ.DeclareTopology {
		if err := DeclareTopology(c.channel, c.cfg, c.logger); err != nil {
			return err
		}
	}

	prefetch := c.cfg.RabbitMQ.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.cfg.RabbitMQ.Queue,
		c.consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	c.logger.Infow("notifyworker_started", "queue", c.cfg.RabbitMQ.Queue, "prefetch", prefetch)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				c.HandleDelivery(ctx, d)
			}
		}
	}()

	return nil
}

func (c *Consumer) Stop(ctx context.Context) error {
	_ = ctx
	if c.channel == nil {
		return nil
	}
	_ = c.channel.Cancel(c.consumerTag, false)
	return nil
}

// HandleDelivery acks on successful delivery and rejects without requeue
// otherwise, so poison messages land in the DLQ.
func (c *Consumer) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Errorw("notifyworker_invalid_json", "err", err, "message_id", d.MessageId)
		_ = d.Reject(false)
		return
	}

	if msg.EventID == uuid.Nil {
		id, err := uuid.Parse(strings.TrimSpace(d.MessageId))
		if err != nil {
			c.logger.Errorw("notifyworker_missing_event_id", "message_id", d.MessageId, "kind", msg.Kind)
			_ = d.Reject(false)
			return
		}
		msg.EventID = id
	}

	if err := c.sink.Send(ctx, msg); err != nil {
		c.logger.Errorw("notifyworker_deliver_failed",
			"err", err,
			"event_id", msg.EventID.String(),
			"kind", msg.Kind,
		)
		_ = d.Reject(false)
		return
	}

	_ = d.Ack(false)
}

// DeclareTopology creates the exchange, queue and their dead-letter pair.
func DeclareTopology(ch *amqp.Channel, cfg *config.Config, logger *zap.SugaredLogger) error {
	ex := strings.TrimSpace(cfg.RabbitMQ.Exchange)
	if ex == "" {
		ex = defaultExchange
	}
	queueName := strings.TrimSpace(cfg.RabbitMQ.Queue)
	if queueName == "" {
		queueName = defaultRoutingKey
	}
	routingKey := strings.TrimSpace(cfg.RabbitMQ.RoutingKey)
	if routingKey == "" {
		routingKey = defaultRoutingKey
	}

	dlx := ex + ".dlx"
	dlq := queueName + ".dlq"

	if err := ch.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq exchange declare %q: %w", ex, err)
	}
	if err := ch.ExchangeDeclare(dlx, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlx exchange declare %q: %w", dlx, err)
	}

	args := amqp.Table{"x-dead-letter-exchange": dlx}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("rabbitmq queue declare %q: %w", queueName, err)
	}
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlq declare %q: %w", dlq, err)
	}
	if err := ch.QueueBind(queueName, routingKey, ex, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue bind queue=%q key=%q ex=%q: %w", queueName, routingKey, ex, err)
	}
	if err := ch.QueueBind(dlq, routingKey, dlx, false, nil); err != nil {
		return fmt.Errorf("rabbitmq dlq bind queue=%q key=%q ex=%q: %w", dlq, routingKey, dlx, err)
	}

	logger.Infow("notify_topology_declared",
		"exchange", ex,
		"queue", queueName,
		"routing_key", routingKey,
		"dlx", dlx,
		"dlq", dlq,
	)
	return nil
}
