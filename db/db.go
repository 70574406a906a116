package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"buywise/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	// Turso "remote only" driver (no embedded replicas)
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var ErrDBDisabled = errors.New("db disabled: set DB_DSN")

// Driver describes how a DSN is opened and which goose dialect migrates it.
type Driver struct {
	Name    string
	Dialect string
}

var (
	Postgres = Driver{Name: "pgx", Dialect: "postgres"}
	LibSQL   = Driver{Name: "libsql", Dialect: "sqlite3"}
	SQLite   = Driver{Name: "sqlite", Dialect: "sqlite3"}
)

// DriverFor maps postgres:// to pgx, libsql:// to Turso and everything else
// (file:, plain paths, :memory:) to the embedded sqlite driver.
func DriverFor(dsn string) Driver {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres
	case strings.HasPrefix(lower, "libsql://"):
		return LibSQL
	default:
		return SQLite
	}
}

// Open connects without pinging.
func Open(dsn, token string) (*sqlx.DB, Driver, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, Driver{}, ErrDBDisabled
	}
	drv := DriverFor(dsn)
	if drv == LibSQL {
		dsn = ensureAuthTokenQuery(dsn, token)
	}
	if drv == SQLite {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sqlx.Open(drv.Name, dsn)
	if err != nil {
		return nil, drv, fmt.Errorf("open %s db: %w", drv.Name, err)
	}

	switch drv {
	case SQLite:
		// one connection keeps :memory: databases alive and serializes writes
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, drv, nil
}

type NewSQLXDBParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger
}

// NewSQLXDB returns nil when DB_DSN is empty so callers can fall back to
// in-memory storage.
func NewSQLXDB(p NewSQLXDBParams) (*sqlx.DB, error) {
	if strings.TrimSpace(p.Cfg.DB.DSN) == "" {
		p.Logger.Infow("db_disabled", "reason", "missing DB_DSN")
		return nil, nil
	}

	db, drv, err := Open(p.Cfg.DB.DSN, p.Cfg.DB.Token)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := db.PingContext(pingCtx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping %s db: %w", drv.Name, err)
			}
			p.Logger.Infow("db_connected", append([]any{"driver", drv.Name}, DSNLogFields(p.Cfg.DB.DSN)...)...)
			if !p.Cfg.DB.AutoMigrate {
				return nil
			}
			if err := Migrate(ctx, db, drv, "up"); err != nil {
				return err
			}
			p.Logger.Infow("db_migrated", "driver", drv.Name)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				p.Logger.Warnw("db_close_failed", "err", err)
			}
			return nil
		},
	})

	return db, nil
}

func ensureAuthTokenQuery(dsn, token string) string {
	if token == "" {
		return dsn
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}

	q := u.Query()
	if q.Get("authToken") != "" {
		return dsn
	}

	q.Set("authToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// DSNLogFields never includes credentials.
func DSNLogFields(dsn string) []any {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return []any{"dsn", "local"}
	}
	return []any{"scheme", u.Scheme, "host", u.Host}
}
