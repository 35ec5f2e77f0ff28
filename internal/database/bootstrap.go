package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// Bootstrap creates the tables on a sqlite database. MySQL deployments load db/schema.mysql.sql instead.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to bootstrap sqlite schema: %w", err)
	}
	return nil
}
