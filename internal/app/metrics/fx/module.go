package fx

import (
	"go.uber.org/fx"

	"buywise/internal/app/metrics"
	"buywise/internal/router"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(metrics.NewHandler)),
)
