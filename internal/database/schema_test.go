package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type recordingExecer struct {
	stmts  []string
	failAt int
}

func (r *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.stmts = append(r.stmts, sql)
	if r.failAt > 0 && len(r.stmts) == r.failAt {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestEnsureSchema(t *testing.T) {
	db := &recordingExecer{}
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}

	if len(db.stmts) != len(schemaStatements) {
		t.Fatalf("statements = %d, want %d", len(db.stmts), len(schemaStatements))
	}
	for _, stmt := range db.stmts {
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Errorf("statement is not idempotent: %s", stmt)
		}
	}
	if !strings.Contains(db.stmts[0], "casualty_snapshots") {
		t.Error("snapshots table must be created before daily_casualties references it")
	}
}

func TestEnsureSchema_Error(t *testing.T) {
	db := &recordingExecer{failAt: 2}
	err := EnsureSchema(context.Background(), db)
	if err == nil {
		t.Fatal("EnsureSchema() expected error")
	}
	if !strings.Contains(err.Error(), "apply schema statement 1") {
		t.Errorf("error = %v, want statement index", err)
	}
	if len(db.stmts) != 2 {
		t.Errorf("statements run = %d, want 2", len(db.stmts))
	}
}
