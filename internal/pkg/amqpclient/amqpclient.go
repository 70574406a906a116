package amqpclient

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
)

type NewAMQPParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.SugaredLogger
}

type AMQPOut struct {
	fx.Out

	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// NewAMQP yields nil connection and channel when RABBITMQ_URL is unset.
func NewAMQP(p NewAMQPParams) (AMQPOut, error) {
	url := strings.TrimSpace(p.Config.RabbitMQ.URL)
	if url == "" {
		p.Logger.Infow("rabbitmq_disabled", "reason", "missing RABBITMQ_URL")
		return AMQPOut{Conn: nil, Channel: nil}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return AMQPOut{}, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return AMQPOut{}, fmt.Errorf("rabbitmq channel: %w", err)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ch.Close()
			_ = conn.Close()
			return nil
		},
	})

	p.Logger.Infow(
		"rabbitmq_enabled",
		"exchange", p.Config.RabbitMQ.Exchange,
		"queue", p.Config.RabbitMQ.Queue,
		"routing_key", p.Config.RabbitMQ.RoutingKey,
		"prefetch", p.Config.RabbitMQ.Prefetch,
		"declare_topology", p.Config.RabbitMQ.DeclareTopology,
	)

	return AMQPOut{Conn: conn, Channel: ch}, nil
}

var Module = fx.Module(
	"amqp",
	fx.Provide(NewAMQP),
)
