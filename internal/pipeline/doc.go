// Package pipeline implements the casualty data pipeline.
//
// The pipeline:
//   - Fetches the killed and daily casualties datasets concurrently
//   - Derives daily increments and a trailing moving average from the cumulative series
//   - Buckets decedents into Children, Women, Seniors and Others
//   - Computes headline summary metrics over the full, unfiltered data
//
// Everything except FetchRawData and FetchSnapshot is a pure function of its inputs.
package pipeline
