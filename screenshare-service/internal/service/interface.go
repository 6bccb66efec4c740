package service

import (
	"errors"

	"github.com/psxio/the-platform/screenshare-service/internal/domain"
)

var (
	// ErrUnknownClient means the client ID is not (or no longer) connected.
	ErrUnknownClient = errors.New("unknown client")
	// ErrRoleConflict means the message contradicts the connection's fixed role.
	ErrRoleConflict = errors.New("role conflict")
	// ErrNotRegisteredWorker means the sender is not the registered
	// connection for the worker it publishes as.
	ErrNotRegisteredWorker = errors.New("not the registered worker connection")
)

// Conn is the transport handle the relay writes to. Send must not block:
// it either enqueues data or fails with domain.ErrConnClosed or
// domain.ErrSendBufferFull.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close()
}

// EventSink receives stream lifecycle events. Emit must not block.
type EventSink interface {
	Emit(ev domain.StreamEvent)
}

// Stats is a point-in-time count of relay state.
type Stats struct {
	Connections int `json:"connections"`
	Streams     int `json:"streams"`
}

// RelayService owns the connection registry and the worker stream table.
type RelayService interface {
	// Connect adds an unregistered connection to the registry.
	Connect(conn Conn)

	// RegisterWorker binds a connection to a worker identity.
	RegisterWorker(clientID, workerID string) error

	// SubscribeViewer subscribes a connection to a worker's stream,
	// replacing any previous subscription.
	SubscribeViewer(clientID, viewerID, targetWorkerID string) error

	// UnsubscribeViewer detaches a viewer from its current stream.
	UnsubscribeViewer(clientID string) error

	// PublishFrame stores and fans out a frame from a registered worker.
	PublishFrame(clientID string, frame *domain.ScreenFrame) error

	// PublishStatus fans out a status change from a registered worker.
	PublishStatus(clientID, workerID string, isStreaming bool) error

	// Disconnect tears down all state held for a closed connection.
	Disconnect(clientID string)

	// ActiveStreams lists streams that have a registered worker connection.
	ActiveStreams() []domain.ActiveStream

	// ActiveStream returns one entry of ActiveStreams.
	ActiveStream(workerID string) (domain.ActiveStream, bool)

	// Stats returns registry and stream table sizes.
	Stats() Stats

	// Close ends every stream and closes every connection.
	Close()
}
