// Package server exposes the derived casualty data over a JSON HTTP API.
//
// Routes:
//   - GET  /health
//   - GET  /api/v1/series?start=&end=&window=
//   - GET  /api/v1/ages
//   - GET  /api/v1/categories
//   - GET  /api/v1/summary
//   - GET  /api/v1/table?start=&end=
//   - POST /api/v1/refresh
//   - GET  /api/v1/stream (websocket)
//   - GET  /metrics
//
// Summary metrics are always computed over the full snapshot; only the
// series and table routes honour the date filter.
package server
