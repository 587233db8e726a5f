// Package stream pushes snapshot notifications to websocket subscribers.
//
// The Hub side is mounted on the HTTP API and fans every refreshed snapshot
// out to connected subscribers. Client is the matching subscriber used by
// the watch command.
package stream
