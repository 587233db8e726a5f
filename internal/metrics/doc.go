// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Dataset fetch outcomes and latencies
//   - Malformed elements skipped while decoding
//   - Headline casualty figures from the current snapshot
//   - Live stream subscribers
//   - HTTP API errors by code
package metrics
