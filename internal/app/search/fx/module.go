package fx

import (
	"go.uber.org/fx"

	"buywise/internal/app/search"
	"buywise/internal/router"
)

var Module = fx.Module(
	"search-api",
	fx.Provide(
		router.AsRoute(search.NewInfoHandler),
		router.AsRoute(search.NewStoresHandler),
		router.AsRoute(search.NewSearchHandler),
		router.AsRoute(search.NewCompareHandler),
	),
)
