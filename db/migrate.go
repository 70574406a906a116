package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"buywise/db/migrations"
)

// Migrate runs a goose command ("up", "down", "status", ...) against db.
func Migrate(ctx context.Context, db *sqlx.DB, drv Driver, cmd string) error {
	if db == nil {
		return ErrDBDisabled
	}
	if err := goose.SetDialect(drv.Dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.RunContext(ctx, cmd, db.DB, "."); err != nil {
		return fmt.Errorf("goose run %q: %w", cmd, err)
	}
	return nil
}
