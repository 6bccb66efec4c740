// Package events forwards relay lifecycle events to out-of-process sinks.
//
// The relay calls Emit while holding its lock, so Emit only ever enqueues.
// Run drains the queue in its own goroutine; sink failures are logged and
// never reach the relay.
package events

import (
	"context"
	"time"

	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/metrics"
)

// Sink handles one lifecycle event.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev domain.StreamEvent) error
}

// Publisher queues lifecycle events and fans them out to sinks.
type Publisher struct {
	queue   chan domain.StreamEvent
	sinks   []Sink
	timeout time.Duration
}

// NewPublisher creates a publisher with a queue of queueSize events. Each
// sink call is bounded by timeout.
func NewPublisher(queueSize int, timeout time.Duration, sinks ...Sink) *Publisher {
	return &Publisher{
		queue:   make(chan domain.StreamEvent, queueSize),
		sinks:   sinks,
		timeout: timeout,
	}
}

// Emit enqueues ev, dropping it if the queue is full.
func (p *Publisher) Emit(ev domain.StreamEvent) {
	select {
	case p.queue <- ev:
	default:
		metrics.EventsDropped.Inc()
		l := pkglog.L()
		l.Warn().
			Str(pkglog.FieldEventType, ev.Type).
			Str(pkglog.FieldWorkerID, ev.WorkerID).
			Msg("event queue full, dropping event")
	}
}

// Run delivers queued events until ctx is cancelled, then flushes whatever
// is still queued and returns.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-p.queue:
			p.dispatch(ev)
		case <-ctx.Done():
			p.flush()
			return nil
		}
	}
}

func (p *Publisher) flush() {
	for {
		select {
		case ev := <-p.queue:
			p.dispatch(ev)
		default:
			return
		}
	}
}

func (p *Publisher) dispatch(ev domain.StreamEvent) {
	for _, sink := range p.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := sink.Handle(ctx, ev)
		cancel()
		if err != nil {
			l := pkglog.L()
			l.Error().Err(err).
				Str("sink", sink.Name()).
				Str(pkglog.FieldEventType, ev.Type).
				Str(pkglog.FieldWorkerID, ev.WorkerID).
				Msg("failed to deliver event")
		}
	}
}
