package domain

// Role is the state of a connection: Unregistered, Worker or Viewer.
// A connection leaves Unregistered with its first register or subscribe
// message and keeps that role until it disconnects.
type Role interface {
	Name() string
	role()
}

// Unregistered is a connection that has not registered or subscribed yet.
type Unregistered struct{}

// Worker is a connection publishing frames under WorkerID.
type Worker struct {
	WorkerID string
}

// Viewer is a connection operated by ViewerID. Watching is the worker it is
// subscribed to, empty between an unsubscribe (or stream end) and the next
// subscribe.
type Viewer struct {
	ViewerID string
	Watching string
}

func (Unregistered) Name() string { return "unregistered" }
func (Worker) Name() string       { return "worker" }
func (Viewer) Name() string       { return "viewer" }

func (Unregistered) role() {}
func (Worker) role()       {}
func (Viewer) role()       {}
