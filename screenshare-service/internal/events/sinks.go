package events

import (
	"context"
	"fmt"

	"github.com/psxio/the-platform/pkg/pubsub"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/store"
)

// BusSink publishes events on the worker's events channel.
type BusSink struct {
	publisher pubsub.Publisher
}

func NewBusSink(publisher pubsub.Publisher) *BusSink {
	return &BusSink{publisher: publisher}
}

func (s *BusSink) Name() string { return "pubsub" }

func (s *BusSink) Handle(ctx context.Context, ev domain.StreamEvent) error {
	var payload interface{}
	switch ev.Type {
	case domain.EventStreamStarted:
		payload = &pubsub.StreamStartedPayload{WorkerID: ev.WorkerID, ClientID: ev.ClientID}
	case domain.EventStreamEnded:
		payload = &pubsub.StreamEndedPayload{WorkerID: ev.WorkerID, Reason: ev.Reason, ViewersAtEnd: ev.Count}
	case domain.EventViewerCountChanged:
		payload = &pubsub.ViewerCountPayload{WorkerID: ev.WorkerID, Count: ev.Count}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	event, err := pubsub.NewEvent(ev.Type, ev.WorkerID, payload, ev.At)
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}
	return s.publisher.Publish(ctx, pubsub.WorkerEventsChannel(ev.WorkerID), event)
}

// DirectorySink keeps the stream directory in step with the relay.
type DirectorySink struct {
	directory store.StreamDirectory
}

func NewDirectorySink(directory store.StreamDirectory) *DirectorySink {
	return &DirectorySink{directory: directory}
}

func (s *DirectorySink) Name() string { return "directory" }

func (s *DirectorySink) Handle(ctx context.Context, ev domain.StreamEvent) error {
	switch ev.Type {
	case domain.EventStreamStarted:
		return s.directory.SetLive(ctx, ev.WorkerID, ev.ClientID, ev.At)
	case domain.EventStreamEnded:
		return s.directory.SetOffline(ctx, ev.WorkerID)
	case domain.EventViewerCountChanged:
		return s.directory.SetViewerCount(ctx, ev.WorkerID, ev.Count)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}
