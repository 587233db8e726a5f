package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement. *pgxpool.Pool implements it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// schemaStatements create the archive tables. Each is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS casualty_snapshots (
		snapshot_id        UUID PRIMARY KEY,
		fetched_at         TIMESTAMPTZ NOT NULL,
		records            INTEGER NOT NULL,
		reports            INTEGER NOT NULL,
		skipped            INTEGER NOT NULL,
		total_deaths       BIGINT NOT NULL,
		cumulative_injured BIGINT NOT NULL,
		children_count     INTEGER NOT NULL,
		men_count          INTEGER NOT NULL,
		women_count        INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS daily_casualties (
		report_date  DATE PRIMARY KEY,
		killed_cum   BIGINT NOT NULL,
		injured_cum  BIGINT,
		snapshot_id  UUID NOT NULL REFERENCES casualty_snapshots (snapshot_id)
	)`,
	`CREATE INDEX IF NOT EXISTS casualty_snapshots_fetched_at_idx
		ON casualty_snapshots (fetched_at DESC)`,
}

// EnsureSchema creates the archive tables if they do not exist.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
