package service

import (
	"sort"
	"sync"
	"time"

	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/pkg/pubsub"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/metrics"
)

type clientRecord struct {
	conn Conn
	role domain.Role
}

// workerStream is the server-side aggregate for one worker identity.
type workerStream struct {
	workerID string
	// workerClient is the registered worker connection; empty while only
	// viewers are waiting for the worker.
	workerClient string
	viewers      map[string]struct{}
	startedAt    time.Time

	lastFrame   []byte
	lastFrameAt int64
}

func (st *workerStream) live() bool {
	return st.workerClient != ""
}

// relayService keeps the registry and stream table behind one mutex. Every
// send made while holding it is a non-blocking enqueue, so per-connection
// order follows lock order.
type relayService struct {
	mu      sync.Mutex
	clients map[string]*clientRecord
	streams map[string]*workerStream
	closed  bool

	events EventSink
	now    func() time.Time
}

// Option configures a relay.
type Option func(*relayService)

// WithEventSink sets the receiver of stream lifecycle events.
func WithEventSink(sink EventSink) Option {
	return func(s *relayService) { s.events = sink }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *relayService) { s.now = now }
}

// NewRelayService creates an empty relay.
func NewRelayService(opts ...Option) RelayService {
	s := &relayService{
		clients: make(map[string]*clientRecord),
		streams: make(map[string]*workerStream),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *relayService) Connect(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		conn.Close()
		return
	}
	s.clients[conn.ID()] = &clientRecord{conn: conn, role: domain.Unregistered{}}
	metrics.Connections.Inc()
}

func (s *relayService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Connections: len(s.clients), Streams: s.liveCountLocked()}
}

func (s *relayService) ActiveStreams() []domain.ActiveStream {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ActiveStream, 0, len(s.streams))
	for _, st := range s.streams {
		if st.live() {
			out = append(out, snapshot(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

func (s *relayService) ActiveStream(workerID string) (domain.ActiveStream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[workerID]
	if !ok || !st.live() {
		return domain.ActiveStream{}, false
	}
	return snapshot(st), true
}

func snapshot(st *workerStream) domain.ActiveStream {
	as := domain.ActiveStream{
		WorkerID:    st.workerID,
		ViewerCount: len(st.viewers),
		StartedAt:   st.startedAt,
	}
	if st.lastFrame != nil {
		at := st.lastFrameAt
		as.LastFrameAt = &at
	}
	return as
}

func (s *relayService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for _, st := range s.streams {
		if st.live() {
			s.endStreamLocked(st, pubsub.ReasonShutdown)
		}
	}
	s.streams = make(map[string]*workerStream)

	for _, rec := range s.clients {
		rec.conn.Close()
	}
	s.clients = make(map[string]*clientRecord)

	metrics.Connections.Set(0)
	metrics.ActiveStreams.Set(0)

	l := pkglog.L()
	l.Info().Msg("relay closed")
}

// streamLocked returns the stream for workerID, creating an empty one.
func (s *relayService) streamLocked(workerID string) *workerStream {
	st, ok := s.streams[workerID]
	if !ok {
		st = &workerStream{
			workerID: workerID,
			viewers:  make(map[string]struct{}),
		}
		s.streams[workerID] = st
	}
	return st
}

func (s *relayService) liveCountLocked() int {
	n := 0
	for _, st := range s.streams {
		if st.live() {
			n++
		}
	}
	return n
}

func (s *relayService) emit(ev domain.StreamEvent) {
	if s.events == nil {
		return
	}
	ev.At = s.now()
	s.events.Emit(ev)
}
