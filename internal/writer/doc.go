// Package writer archives fetched snapshots to PostgreSQL.
//
// Each snapshot becomes one casualty_snapshots row carrying its summary
// metrics, plus one daily_casualties upsert per report. Writes are
// queued and applied by a single consumer goroutine so callers never
// block on the database.
package writer
