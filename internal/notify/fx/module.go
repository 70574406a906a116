package fx

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
	"buywise/internal/notify"
)

type NewSinkParams struct {
	fx.In

	Cfg     *config.Config
	Channel *amqp.Channel `optional:"true"`
	Logger  *zap.SugaredLogger
}

// NewSink always logs. With RabbitMQ it also queues for the worker;
// otherwise it mails directly when SMTP is configured.
func NewSink(p NewSinkParams) notify.Sink {
	sinks := notify.Multi{notify.NewLogSink(p.Logger)}
	switch {
	case p.Channel != nil:
		if p.Cfg.RabbitMQ.DeclareTopology {
			if err := notify.DeclareTopology(p.Channel, p.Cfg, p.Logger); err != nil {
				p.Logger.Errorw("notify_topology_declare_failed", "err", err)
			}
		}
		sinks = append(sinks, notify.NewAMQPPublisher(p.Cfg, p.Channel.PublishWithContext, p.Logger))
	case p.Cfg.SMTP.Host != "":
		sinks = append(sinks, notify.NewSMTPSink(notify.SMTPConfigFrom(p.Cfg), p.Logger))
	}
	return sinks
}

type NewDeliverySinkParams struct {
	fx.In

	Cfg    *config.Config
	Logger *zap.SugaredLogger
}

// NewDeliverySink is what the worker hands consumed messages to.
func NewDeliverySink(p NewDeliverySinkParams) notify.Sink {
	if p.Cfg.SMTP.Host == "" {
		p.Logger.Infow("notify_delivery", "sink", "log", "reason", "missing SMTP_HOST")
		return notify.NewLogSink(p.Logger)
	}
	p.Logger.Infow("notify_delivery", "sink", "smtp", "host", p.Cfg.SMTP.Host)
	return notify.NewSMTPSink(notify.SMTPConfigFrom(p.Cfg), p.Logger)
}

var Module = fx.Module(
	"notify",
	fx.Provide(NewSink),
)

var WorkerModule = fx.Module(
	"notify-worker",
	fx.Provide(
		fx.Annotate(NewDeliverySink, fx.ResultTags(`name:"delivery"`)),
		notify.NewConsumer,
	),
	fx.Invoke(registerConsumerHooks),
)

type hooksParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Consumer  *notify.Consumer
	Logger    *zap.SugaredLogger
}

func registerConsumerHooks(p hooksParams) {
	ctx, cancel := context.WithCancel(context.Background())
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Logger.Infow("notifyworker_starting")
			return p.Consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			p.Logger.Infow("notifyworker_stopping")
			cancel()
			return p.Consumer.Stop(stopCtx)
		},
	})
}
