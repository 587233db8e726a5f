// Package poller implements the periodic snapshot refresher.
//
// The refresher:
//   - Reloads the snapshot cache on a fixed interval
//   - Loads the first snapshot immediately on start
//   - Bounds every refresh with a timeout
//   - Keeps serving the previous snapshot when a reload fails
package poller
