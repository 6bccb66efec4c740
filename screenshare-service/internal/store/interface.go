package store

import (
	"context"
	"time"
)

// StreamDirectory mirrors the set of live worker streams for readers outside
// this process.
type StreamDirectory interface {
	// SetLive marks a worker live with the connection serving it.
	SetLive(ctx context.Context, workerID, clientID string, startedAt time.Time) error

	// SetViewerCount updates the viewer count of a live worker.
	SetViewerCount(ctx context.Context, workerID string, count int) error

	// SetOffline removes a worker from the directory.
	SetOffline(ctx context.Context, workerID string) error

	// ListLive returns the IDs of all live workers.
	ListLive(ctx context.Context) ([]string, error)

	// Reset removes every entry.
	Reset(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
