package main

import (
	"go.uber.org/fx"

	appfx "buywise/internal/app/fx"
	notifyfx "buywise/internal/notify/fx"
	"buywise/internal/pkg/amqpclient"
)

// The worker drains queued price alerts into SMTP (or the log when SMTP
// is not configured).
func main() {
	app := fx.New(
		appfx.ZapEventLogger,
		appfx.CoreAppOptions,
		amqpclient.Module,
		notifyfx.WorkerModule,
	)

	app.Run()
}
