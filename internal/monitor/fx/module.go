package fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"
	"buywise/internal/metrics"
	"buywise/internal/monitor"
	"buywise/internal/notify"
	"buywise/internal/scraper"
	"buywise/internal/watchlist"
)

type NewMonitorParams struct {
	fx.In

	Cfg      *config.Config
	Registry *scraper.Registry
	Store    watchlist.Store
	Sink     notify.Sink
	Logger   *zap.SugaredLogger
	Recorder metrics.Recorder `optional:"true"`
}

func NewMonitor(p NewMonitorParams) *monitor.Monitor {
	return monitor.New(p.Registry, p.Store, p.Sink, monitor.OptionsFromConfig(p.Cfg), p.Logger, p.Recorder)
}

type hooksParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Monitor   *monitor.Monitor
	Logger    *zap.SugaredLogger
}

func registerMonitorHooks(p hooksParams) {
	if !p.Cfg.Monitor.Enabled {
		p.Logger.Infow("monitor_disabled", "reason", "MONITOR_ENABLED=false")
		return
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return p.Monitor.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return p.Monitor.Stop(ctx)
		},
	})
}

var Module = fx.Module(
	"monitor",
	fx.Provide(NewMonitor),
	fx.Invoke(registerMonitorHooks),
)
