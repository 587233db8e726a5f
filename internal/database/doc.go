// Package database provides the PostgreSQL connection pool for the snapshot archive.
//
// The archive holds:
//   - casualty_snapshots: one row per fetched snapshot with its summary metrics
//   - daily_casualties: the latest cumulative counts per report date
package database
