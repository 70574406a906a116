package fx

import (
	"go.uber.org/fx"

	"buywise/internal/app/watchlist"
	"buywise/internal/router"
)

var Module = fx.Module(
	"watchlist-api",
	fx.Provide(
		router.AsRoute(watchlist.NewAddHandler),
		router.AsRoute(watchlist.NewListHandler),
		router.AsRoute(watchlist.NewGetHandler),
		router.AsRoute(watchlist.NewCheckHandler),
	),
)
