// Package api provides the HTTP client for the Tech for Palestine datasets.
//
// Endpoints (relative to https://data.techforpalestine.org/api/v2):
//   - /killed-in-gaza.min.json: one object per named decedent
//   - /casualties_daily.min.json: one object per report day, cumulative counts
//
// Both endpoints return a top-level JSON array. Elements that cannot be coerced
// into their model type are skipped and reported as ErrMalformedRecord.
package api
