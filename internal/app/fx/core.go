package fx

import (
	"buywise/config"
	"buywise/internal/logs"

	"go.uber.org/fx"
)

// CoreAppOptions is the config and logging every process starts from.
var CoreAppOptions = fx.Options(
	fx.Provide(
		config.NewViper,
		config.NewConfig,
		logs.NewLogger,
		logs.NewSugaredLogger,
	),
	fx.Invoke(logs.RegisterLifecycle),
)
