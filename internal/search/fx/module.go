package fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/cache"
	"buywise/internal/scraper"
	"buywise/internal/search"
)

func NewOrchestrator(reg *scraper.Registry, c *cache.ResultCache, log *zap.SugaredLogger) *search.Orchestrator {
	return search.NewOrchestrator(reg, c, log)
}

var Module = fx.Module(
	"search",
	fx.Provide(NewOrchestrator),
)
