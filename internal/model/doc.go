// Package model defines shared data types used across the casualty monitor.
//
// Conventions:
//   - Dates: time.Time truncated to UTC midnight
//   - Counts: int64 for cumulative series, int for per-record tallies
//   - Optional fields: pointers, nil meaning "not reported upstream"
//   - IDs: uuid.UUID for fetched snapshots
package model
