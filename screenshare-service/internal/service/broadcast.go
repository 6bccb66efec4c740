package service

import (
	"errors"
	"fmt"

	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/metrics"
)

func (s *relayService) PublishFrame(clientID string, frame *domain.ScreenFrame) error {
	ts := frame.Timestamp
	if ts == 0 {
		ts = s.now().UnixMilli()
	}
	data, err := domain.Encode(domain.NewScreenFrameMessage(frame.WorkerID, frame.Frame, ts))
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.publisherStreamLocked(clientID, frame.WorkerID)
	if err != nil {
		return err
	}

	st.lastFrame = data
	st.lastFrameAt = ts
	metrics.FramesPublished.Inc()

	for viewerID := range st.viewers {
		if rec, ok := s.clients[viewerID]; ok {
			s.deliverFrameLocked(rec.conn, data)
		}
	}
	return nil
}

func (s *relayService) PublishStatus(clientID, workerID string, isStreaming bool) error {
	data, err := domain.Encode(domain.NewStreamStatusMessage(workerID, isStreaming))
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.publisherStreamLocked(clientID, workerID)
	if err != nil {
		return err
	}

	for viewerID := range st.viewers {
		if rec, ok := s.clients[viewerID]; ok {
			rec.conn.Send(data)
		}
	}

	l := pkglog.L()
	l.Debug().
		Str(pkglog.FieldWorkerID, workerID).
		Bool("is_streaming", isStreaming).
		Int(pkglog.FieldViewerCount, len(st.viewers)).
		Msg("stream status relayed")
	return nil
}

// publisherStreamLocked returns the stream clientID may publish to as
// workerID. Only the currently registered worker connection qualifies.
func (s *relayService) publisherStreamLocked(clientID, workerID string) (*workerStream, error) {
	rec, ok := s.clients[clientID]
	if !ok {
		return nil, ErrUnknownClient
	}
	worker, ok := rec.role.(domain.Worker)
	if !ok {
		return nil, fmt.Errorf("%w: %s connection cannot publish", ErrNotRegisteredWorker, rec.role.Name())
	}
	if worker.WorkerID != workerID {
		return nil, fmt.Errorf("%w: registered as %s, published as %s", ErrNotRegisteredWorker, worker.WorkerID, workerID)
	}
	st, ok := s.streams[workerID]
	if !ok || st.workerClient != clientID {
		return nil, fmt.Errorf("%w: connection superseded for %s", ErrNotRegisteredWorker, workerID)
	}
	return st, nil
}

// deliverFrameLocked enqueues a frame; a full buffer drops it for this
// viewer only and a closed connection is skipped.
func (s *relayService) deliverFrameLocked(conn Conn, data []byte) {
	err := conn.Send(data)
	switch {
	case err == nil:
		metrics.FramesDelivered.Inc()
	case errors.Is(err, domain.ErrSendBufferFull):
		metrics.FramesDropped.WithLabelValues(metrics.DropBufferFull).Inc()
	}
}

// sendLocked encodes and enqueues a control message.
func (s *relayService) sendLocked(conn Conn, msg interface{}) {
	data, err := domain.Encode(msg)
	if err != nil {
		l := pkglog.L()
		l.Error().Err(err).Str(pkglog.FieldClientID, conn.ID()).Msg("failed to encode message")
		return
	}
	if err := conn.Send(data); err != nil {
		l := pkglog.L()
		l.Debug().Err(err).Str(pkglog.FieldClientID, conn.ID()).Msg("control message not delivered")
	}
}
