package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/psxio/the-platform/pkg/pubsub"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/metrics"
	"github.com/psxio/the-platform/screenshare-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.StreamEvent
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Handle(_ context.Context, ev domain.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) received() []domain.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StreamEvent(nil), s.events...)
}

type published struct {
	channel string
	event   *pubsub.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) Publish(_ context.Context, channel string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{channel: channel, event: event})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

var at = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func TestPublisher_DeliversInOrder(t *testing.T) {
	first := &recordingSink{err: errors.New("bus down")}
	second := &recordingSink{}
	p := NewPublisher(8, time.Second, first, second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	p.Emit(domain.StreamEvent{Type: domain.EventStreamStarted, WorkerID: "W1"})
	p.Emit(domain.StreamEvent{Type: domain.EventViewerCountChanged, WorkerID: "W1", Count: 1})

	require.Eventually(t, func() bool { return len(second.received()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, first.received(), 2, "a failing sink does not stop delivery")
	assert.Equal(t, domain.EventViewerCountChanged, second.received()[1].Type)

	cancel()
	require.NoError(t, <-done)
}

func TestPublisher_FlushesOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(8, time.Second, sink)

	p.Emit(domain.StreamEvent{Type: domain.EventStreamEnded, WorkerID: "W1"})
	p.Emit(domain.StreamEvent{Type: domain.EventStreamEnded, WorkerID: "W2"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))
	assert.Len(t, sink.received(), 2)
}

func TestPublisher_DropsWhenFull(t *testing.T) {
	p := NewPublisher(1, time.Second)
	before := testutil.ToFloat64(metrics.EventsDropped)

	p.Emit(domain.StreamEvent{Type: domain.EventStreamStarted, WorkerID: "W1"})
	p.Emit(domain.StreamEvent{Type: domain.EventStreamStarted, WorkerID: "W2"})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsDropped))
}

func TestBusSink_Payloads(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewBusSink(pub)
	ctx := context.Background()

	require.NoError(t, sink.Handle(ctx, domain.StreamEvent{Type: domain.EventStreamStarted, WorkerID: "W1", ClientID: "c1", At: at}))
	require.NoError(t, sink.Handle(ctx, domain.StreamEvent{Type: domain.EventStreamEnded, WorkerID: "W1", Count: 2, Reason: pubsub.ReasonDisconnect, At: at}))
	assert.Error(t, sink.Handle(ctx, domain.StreamEvent{Type: "bogus", WorkerID: "W1"}))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "screenshare:worker:W1:events", pub.sent[0].channel)
	assert.Equal(t, at, pub.sent[0].event.Timestamp)

	var started pubsub.StreamStartedPayload
	require.NoError(t, pub.sent[0].event.UnmarshalPayload(&started))
	assert.Equal(t, "c1", started.ClientID)

	var ended pubsub.StreamEndedPayload
	require.NoError(t, pub.sent[1].event.UnmarshalPayload(&ended))
	assert.Equal(t, pubsub.StreamEndedPayload{WorkerID: "W1", Reason: "disconnect", ViewersAtEnd: 2}, ended)
}

func TestDirectorySink_TracksStream(t *testing.T) {
	mr := miniredis.RunT(t)
	dir, err := store.NewRedisDirectory(store.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer dir.Close()

	sink := NewDirectorySink(dir)
	ctx := context.Background()

	require.NoError(t, sink.Handle(ctx, domain.StreamEvent{Type: domain.EventStreamStarted, WorkerID: "W1", ClientID: "c1", At: at}))
	require.NoError(t, sink.Handle(ctx, domain.StreamEvent{Type: domain.EventViewerCountChanged, WorkerID: "W1", Count: 4}))

	assert.Equal(t, "4", mr.HGet("screenshare:worker:W1", "viewer_count"))
	assert.Equal(t, "c1", mr.HGet("screenshare:worker:W1", "client_id"))

	live, err := dir.ListLive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"W1"}, live)

	require.NoError(t, sink.Handle(ctx, domain.StreamEvent{Type: domain.EventStreamEnded, WorkerID: "W1"}))
	assert.False(t, mr.Exists("screenshare:worker:W1"))
	live, err = dir.ListLive(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)
}
