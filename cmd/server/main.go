package main

import (
	"go.uber.org/fx"

	cachefx "buywise/cache/fx"
	dbfx "buywise/db/fx"
	appfx "buywise/internal/app/fx"
	healthfx "buywise/internal/app/health/fx"
	inngestfx "buywise/internal/app/inngest/fx"
	metricsapifx "buywise/internal/app/metrics/fx"
	searchapifx "buywise/internal/app/search/fx"
	watchlistapifx "buywise/internal/app/watchlist/fx"
	metricsfx "buywise/internal/metrics/fx"
	monitorfx "buywise/internal/monitor/fx"
	notifyfx "buywise/internal/notify/fx"
	"buywise/internal/pkg/amqpclient"
	routerfx "buywise/internal/router/fx"
	scraperfx "buywise/internal/scraper/fx"
	searchfx "buywise/internal/search/fx"
	serverfx "buywise/internal/server/fx"
	watchlistfx "buywise/internal/watchlist/fx"
)

func main() {
	app := fx.New(
		appfx.ZapEventLogger,
		appfx.CoreAppOptions,
		metricsfx.Module,
		dbfx.Module,
		cachefx.Module,
		amqpclient.Module,
		scraperfx.Module,
		searchfx.Module,
		watchlistfx.Module,
		notifyfx.Module,
		monitorfx.Module,
		routerfx.CoreRouterOptions,
		serverfx.Module,
		healthfx.Module,
		metricsapifx.Module,
		searchapifx.Module,
		watchlistapifx.Module,
		inngestfx.Module,
	)

	app.Run()
}
