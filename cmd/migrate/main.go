package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"buywise/config"
	"buywise/db"
	appfx "buywise/internal/app/fx"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type MigrateCmd string

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	app := fx.New(
		appfx.ZapEventLogger,
		appfx.CoreAppOptions,
		fx.Supply(MigrateCmd(cmd)),
		fx.Invoke(registerMigrateHook),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type migrateHookParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger

	Cmd MigrateCmd
}

func registerMigrateHook(p migrateHookParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			conn, drv, err := db.Open(p.Cfg.DB.DSN, p.Cfg.DB.Token)
			if err != nil {
				return fmt.Errorf("%w: set DB_DSN", err)
			}
			defer func() {
				_ = conn.Close()
			}()

			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			defer pingCancel()
			if err := conn.PingContext(pingCtx); err != nil {
				return fmt.Errorf("ping %s db: %w", drv.Name, err)
			}
			p.Logger.Infow("db_connection_ok", append([]any{"driver", drv.Name}, db.DSNLogFields(p.Cfg.DB.DSN)...)...)

			p.Logger.Infow("goose_run_start", "cmd", string(p.Cmd), "dialect", drv.Dialect)
			if err := db.Migrate(ctx, conn, drv, string(p.Cmd)); err != nil {
				return err
			}
			p.Logger.Infow("goose_run_done", "cmd", string(p.Cmd))
			return nil
		},
	})
}
