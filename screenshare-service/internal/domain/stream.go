package domain

import (
	"errors"
	"time"
)

// Transport send failures reported by a connection handle.
var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// ActiveStream is the read model of one live worker stream.
type ActiveStream struct {
	WorkerID    string    `json:"workerId"`
	ViewerCount int       `json:"viewerCount"`
	StartedAt   time.Time `json:"startedAt"`
	LastFrameAt *int64    `json:"lastFrameAt,omitempty"`
}

// Stream lifecycle event types.
const (
	EventStreamStarted      = "stream_started"
	EventStreamEnded        = "stream_ended"
	EventViewerCountChanged = "viewer_count_changed"
)

// StreamEvent is a lifecycle change emitted by the relay for out-of-process
// consumers.
type StreamEvent struct {
	Type     string
	WorkerID string
	ClientID string
	Count    int
	Reason   string
	At       time.Time
}
