package stream

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/casualty-monitor/internal/model"
	"github.com/rickgao/casualty-monitor/internal/pipeline"
)

// Errors
var (
	ErrAlreadyClosed = errors.New("already closed")
	ErrHubClosed     = errors.New("hub closed")
)

// EventTypeSnapshot marks an event announcing a freshly loaded snapshot.
const EventTypeSnapshot = "snapshot"

// Event is the JSON message pushed to subscribers.
type Event struct {
	Type       string               `json:"type"`
	SnapshotID uuid.UUID            `json:"snapshot_id"`
	FetchedAt  time.Time            `json:"fetched_at"`
	Records    int                  `json:"records"`
	Reports    int                  `json:"reports"`
	Skipped    int                  `json:"skipped"`
	Summary    model.SummaryMetrics `json:"summary"`
}

// NewSnapshotEvent describes snap for subscribers.
func NewSnapshotEvent(snap *model.Snapshot) Event {
	return Event{
		Type:       EventTypeSnapshot,
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		Records:    len(snap.Records),
		Reports:    len(snap.Reports),
		Skipped:    snap.Skipped,
		Summary:    pipeline.Summarize(snap.Records, snap.Reports),
	}
}

// HubConfig contains configuration for the Hub.
type HubConfig struct {
	PingInterval time.Duration // Interval between keepalive pings
	WriteTimeout time.Duration // Deadline for a single write
	BufferSize   int           // Events queued per subscriber before it is dropped
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		BufferSize:   16,
	}
}

// SubscriberObserver is told when subscribers come and go.
type SubscriberObserver interface {
	SubscriberAdded()
	SubscriberRemoved()
}
