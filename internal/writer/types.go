package writer

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// WriterConfig contains configuration for the snapshot writer.
type WriterConfig struct {
	// BufferSize is the number of snapshots that may wait for a write.
	BufferSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BufferSize: 4,
	}
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Snapshots int64
	Days      int64
	Errors    int64
	Dropped   int64
}

// BatchSender sends a queued batch. *pgxpool.Pool implements it.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}
