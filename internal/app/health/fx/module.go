package fx

import (
	"go.uber.org/fx"

	"buywise/internal/app/health"
	"buywise/internal/router"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(health.NewHandler)),
)
