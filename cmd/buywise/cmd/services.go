package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cachefx "buywise/cache/fx"
	"buywise/config"
	appfx "buywise/internal/app/fx"
	metricsfx "buywise/internal/metrics/fx"
	"buywise/internal/monitor"
	monitorfx "buywise/internal/monitor/fx"
	"buywise/internal/notify"
	"buywise/internal/scraper"
	scraperfx "buywise/internal/scraper/fx"
	searchsvc "buywise/internal/search"
	searchfx "buywise/internal/search/fx"
	"buywise/internal/watchlist"
)

type services struct {
	fx.In

	Cfg          *config.Config
	Registry     *scraper.Registry
	Orchestrator *searchsvc.Orchestrator
	Monitor      *monitor.Monitor
}

// servicesFactory builds what a command needs. Alerts raised during the
// command are written to out. The returned func releases resources.
type servicesFactory func(ctx context.Context, out io.Writer) (*services, func(), error)

// newFxServices wires the real scrapers and cache with an in-memory
// watchlist and without the background monitor loop.
func newFxServices(ctx context.Context, out io.Writer) (*services, func(), error) {
	var s services
	app := fx.New(
		fx.NopLogger,
		appfx.CoreAppOptions,
		metricsfx.Module,
		cachefx.Module,
		scraperfx.Module,
		searchfx.Module,
		fx.Provide(
			func() watchlist.Store { return watchlist.NewMemoryStore() },
			func(log *zap.SugaredLogger) notify.Sink {
				return notify.Multi{notify.NewLogSink(log), printSink(out)}
			},
			monitorfx.NewMonitor,
		),
		fx.Invoke(func(p services) { s = p }),
	)
	if err := app.Start(ctx); err != nil {
		return nil, nil, err
	}
	stop := func() { _ = app.Stop(context.Background()) }
	return &s, stop, nil
}

func printSink(out io.Writer) notify.Sink {
	return notify.SinkFunc(func(_ context.Context, m notify.Message) error {
		_, err := fmt.Fprintf(out, "%s\n\n%s\n", m.Subject, m.Body)
		return err
	})
}
