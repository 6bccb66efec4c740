// Package metrics defines Prometheus metrics for the screen-share relay.
//
// Collectors are registered with the default registry and served on /metrics.
// All names carry the screenshare_ prefix; counters end in _total.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Frame drop reasons.
const (
	DropBufferFull  = "buffer_full"
	DropRateLimited = "rate_limited"
)

var (
	// Connections is the number of open WebSocket connections.
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "screenshare_connections",
		Help: "Number of open WebSocket connections.",
	})

	// ActiveStreams is the number of workers with a registered connection.
	ActiveStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "screenshare_active_streams",
		Help: "Number of worker streams with a registered worker connection.",
	})

	// MessagesTotal counts decoded inbound messages by type.
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenshare_messages_total",
			Help: "Inbound messages by type.",
		},
		[]string{"type"},
	)

	// FramesPublished counts frames accepted from workers.
	FramesPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "screenshare_frames_published_total",
		Help: "Frames accepted from registered workers.",
	})

	// FramesDelivered counts frames enqueued to viewers, replays included.
	FramesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "screenshare_frames_delivered_total",
		Help: "Frames enqueued to viewer connections.",
	})

	// FramesDropped counts frames not delivered, by reason.
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenshare_frames_dropped_total",
			Help: "Frames dropped by reason.",
		},
		[]string{"reason"},
	)

	// MalformedMessages counts inbound payloads that failed to decode.
	MalformedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "screenshare_malformed_messages_total",
		Help: "Inbound messages that could not be decoded or validated.",
	})

	// RoleViolations counts messages rejected for the sender's role.
	RoleViolations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "screenshare_role_violations_total",
		Help: "Messages ignored because they did not match the connection's role.",
	})

	// EventsDropped counts lifecycle events lost to a full queue.
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "screenshare_events_dropped_total",
		Help: "Lifecycle events dropped because the publish queue was full.",
	})
)

func init() {
	prometheus.MustRegister(
		Connections,
		ActiveStreams,
		MessagesTotal,
		FramesPublished,
		FramesDelivered,
		FramesDropped,
		MalformedMessages,
		RoleViolations,
		EventsDropped,
	)
}
