package pubsub

import (
	"fmt"
	"strings"
)

// ChannelWorkerEvents carries lifecycle events for one worker's stream.
const ChannelWorkerEvents = "screenshare:worker:%s:events"

// DefaultKafkaTopic is the topic all worker channels map to on Kafka.
const DefaultKafkaTopic = "screenshare-events"

// Event types for stream lifecycle notifications.
const (
	EventStreamStarted      = "stream_started"
	EventStreamEnded        = "stream_ended"
	EventViewerCountChanged = "viewer_count_changed"
)

// Stream end reasons.
const (
	ReasonDisconnect = "disconnect"
	ReasonShutdown   = "shutdown"
)

// WorkerEventsChannel returns the channel name for a worker's lifecycle events.
func WorkerEventsChannel(workerID string) string {
	return fmt.Sprintf(ChannelWorkerEvents, workerID)
}

// workerFromChannel extracts the worker ID from a worker events channel.
//
//	"screenshare:worker:W1:events" → "W1"
func workerFromChannel(channel string) (string, error) {
	const prefix, suffix = "screenshare:worker:", ":events"
	if !strings.HasPrefix(channel, prefix) || !strings.HasSuffix(channel, suffix) {
		return "", fmt.Errorf("invalid channel format: %s", channel)
	}
	id := channel[len(prefix) : len(channel)-len(suffix)]
	if id == "" {
		return "", fmt.Errorf("invalid channel format: %s", channel)
	}
	return id, nil
}

// StreamStartedPayload is published when a worker connection registers.
type StreamStartedPayload struct {
	WorkerID string `json:"worker_id"`
	ClientID string `json:"client_id"`
}

// StreamEndedPayload is published when a worker's stream is torn down.
type StreamEndedPayload struct {
	WorkerID     string `json:"worker_id"`
	Reason       string `json:"reason"`
	ViewersAtEnd int    `json:"viewers_at_end"`
}

// ViewerCountPayload is published whenever a stream's viewer set changes.
type ViewerCountPayload struct {
	WorkerID string `json:"worker_id"`
	Count    int    `json:"count"`
}
