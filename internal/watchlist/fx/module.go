package fx

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/internal/watchlist"
)

type NewStoreParams struct {
	fx.In

	DB     *sqlx.DB `optional:"true"`
	Logger *zap.SugaredLogger
}

// NewStore uses SQL when a database is configured and memory otherwise.
func NewStore(p NewStoreParams) watchlist.Store {
	if p.DB == nil {
		p.Logger.Infow("watchlist_store", "backend", "memory")
		return watchlist.NewMemoryStore()
	}
	p.Logger.Infow("watchlist_store", "backend", "sql", "driver", p.DB.DriverName())
	return watchlist.NewSQLStore(p.DB, p.Logger)
}

var Module = fx.Module(
	"watchlist",
	fx.Provide(NewStore),
)
