package domain

import "encoding/json"

// WebSocket message types from client.
const (
	MsgTypeWorkerRegister    = "worker-register"
	MsgTypeViewerSubscribe   = "viewer-subscribe"
	MsgTypeViewerUnsubscribe = "viewer-unsubscribe"
	MsgTypeScreenFrame       = "screen-frame"
	MsgTypeStreamStatus      = "stream-status"
	MsgTypePing              = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeWorkerRegistered = "worker-registered"
	MsgTypeSubscribed       = "subscribed"
	MsgTypeViewerCount      = "viewer-count"
	MsgTypeStreamEnded      = "stream-ended"
	MsgTypePong             = "pong"
)

// BaseMessage is the envelope shared by every WebSocket message.
type BaseMessage struct {
	Type string `json:"type"`
}

// Inbound is a decoded client message. The set of implementations is closed:
// only the types in this file satisfy it.
type Inbound interface {
	Kind() string
	inbound()
}

// Client -> Server messages

// WorkerRegister binds a connection to a worker identity.
type WorkerRegister struct {
	UserID string `json:"userId" validate:"required,max=256"`
}

// ViewerSubscribe subscribes a connection to a worker's stream.
type ViewerSubscribe struct {
	ViewerID     string `json:"viewerId" validate:"required,max=256"`
	TargetUserID string `json:"targetUserId" validate:"required,max=256"`
}

// ViewerUnsubscribe detaches a viewer from whatever it watches.
type ViewerUnsubscribe struct{}

// ScreenFrame is one capture published by a worker. Clients may name the
// worker with either userId or workerId; Decode folds both into WorkerID.
type ScreenFrame struct {
	UserID    string `json:"userId,omitempty"`
	WorkerID  string `json:"workerId" validate:"required,max=256"`
	Frame     string `json:"frame" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
}

// StreamStatus announces whether a worker is currently capturing.
type StreamStatus struct {
	UserID      string `json:"userId,omitempty"`
	WorkerID    string `json:"workerId" validate:"required,max=256"`
	IsStreaming *bool  `json:"isStreaming" validate:"required"`
}

// Ping is a keepalive answered with Pong.
type Ping struct{}

func (*WorkerRegister) Kind() string    { return MsgTypeWorkerRegister }
func (*ViewerSubscribe) Kind() string   { return MsgTypeViewerSubscribe }
func (*ViewerUnsubscribe) Kind() string { return MsgTypeViewerUnsubscribe }
func (*ScreenFrame) Kind() string       { return MsgTypeScreenFrame }
func (*StreamStatus) Kind() string      { return MsgTypeStreamStatus }
func (*Ping) Kind() string              { return MsgTypePing }

func (*WorkerRegister) inbound()    {}
func (*ViewerSubscribe) inbound()   {}
func (*ViewerUnsubscribe) inbound() {}
func (*ScreenFrame) inbound()       {}
func (*StreamStatus) inbound()      {}
func (*Ping) inbound()              {}

// Server -> Client messages

// WorkerRegisteredMessage acknowledges a worker registration.
type WorkerRegisteredMessage struct {
	Type        string `json:"type"`
	ClientID    string `json:"clientId"`
	ViewerCount int    `json:"viewerCount"`
}

// SubscribedMessage acknowledges a viewer subscription.
type SubscribedMessage struct {
	Type           string `json:"type"`
	TargetUserID   string `json:"targetUserId"`
	IsStreamActive bool   `json:"isStreamActive"`
}

// ScreenFrameMessage is a frame relayed to viewers.
type ScreenFrameMessage struct {
	Type      string `json:"type"`
	WorkerID  string `json:"workerId"`
	Frame     string `json:"frame"`
	Timestamp int64  `json:"timestamp"`
}

// ViewerCountMessage tells a worker how many viewers it has.
type ViewerCountMessage struct {
	Type     string `json:"type"`
	WorkerID string `json:"workerId"`
	Count    int    `json:"count"`
}

// StreamStatusMessage is a status change relayed to viewers.
type StreamStatusMessage struct {
	Type        string `json:"type"`
	WorkerID    string `json:"workerId"`
	IsStreaming bool   `json:"isStreaming"`
}

// StreamEndedMessage is the terminal message a viewer gets for a stream.
type StreamEndedMessage struct {
	Type     string `json:"type"`
	WorkerID string `json:"workerId"`
}

// PongMessage answers a Ping.
type PongMessage struct {
	Type string `json:"type"`
}

func NewWorkerRegisteredMessage(clientID string, viewerCount int) *WorkerRegisteredMessage {
	return &WorkerRegisteredMessage{Type: MsgTypeWorkerRegistered, ClientID: clientID, ViewerCount: viewerCount}
}

func NewSubscribedMessage(targetUserID string, active bool) *SubscribedMessage {
	return &SubscribedMessage{Type: MsgTypeSubscribed, TargetUserID: targetUserID, IsStreamActive: active}
}

func NewScreenFrameMessage(workerID, frame string, timestamp int64) *ScreenFrameMessage {
	return &ScreenFrameMessage{Type: MsgTypeScreenFrame, WorkerID: workerID, Frame: frame, Timestamp: timestamp}
}

func NewViewerCountMessage(workerID string, count int) *ViewerCountMessage {
	return &ViewerCountMessage{Type: MsgTypeViewerCount, WorkerID: workerID, Count: count}
}

func NewStreamStatusMessage(workerID string, streaming bool) *StreamStatusMessage {
	return &StreamStatusMessage{Type: MsgTypeStreamStatus, WorkerID: workerID, IsStreaming: streaming}
}

func NewStreamEndedMessage(workerID string) *StreamEndedMessage {
	return &StreamEndedMessage{Type: MsgTypeStreamEnded, WorkerID: workerID}
}

func NewPongMessage() *PongMessage {
	return &PongMessage{Type: MsgTypePong}
}

// Encode serializes an outbound message.
func Encode(msg interface{}) ([]byte, error) {
	return json.Marshal(msg)
}
