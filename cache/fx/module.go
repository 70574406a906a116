package fx

import (
	"buywise/cache"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"result-cache",
	fx.Provide(
		cache.NewRedis,
		cache.NewBackend,
		cache.NewResultCacheFromConfig,
	),
)
