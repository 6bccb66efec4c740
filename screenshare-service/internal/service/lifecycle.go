package service

import (
	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/pkg/pubsub"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/metrics"
)

func (s *relayService) Disconnect(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.clients[clientID]
	if !ok {
		return
	}
	delete(s.clients, clientID)
	metrics.Connections.Dec()

	l := pkglog.L()
	switch role := rec.role.(type) {
	case domain.Unregistered:
		l.Debug().Str(pkglog.FieldClientID, clientID).Msg("unregistered client disconnected")

	case domain.Viewer:
		if role.Watching != "" {
			s.detachLocked(clientID, role.Watching)
		}
		l.Info().
			Str(pkglog.FieldClientID, clientID).
			Str(pkglog.FieldViewerID, role.ViewerID).
			Str(pkglog.FieldWorkerID, role.Watching).
			Msg("viewer disconnected")

	case domain.Worker:
		st, ok := s.streams[role.WorkerID]
		if !ok || st.workerClient != clientID {
			l.Info().
				Str(pkglog.FieldClientID, clientID).
				Str(pkglog.FieldWorkerID, role.WorkerID).
				Msg("superseded worker connection closed")
			return
		}
		s.endStreamLocked(st, pubsub.ReasonDisconnect)
		l.Info().
			Str(pkglog.FieldClientID, clientID).
			Str(pkglog.FieldWorkerID, role.WorkerID).
			Msg("worker disconnected, stream ended")
	}
}

// endStreamLocked sends stream-ended to every viewer once, detaches them and
// deletes the stream.
func (s *relayService) endStreamLocked(st *workerStream, reason string) {
	viewers := len(st.viewers)

	data, err := domain.Encode(domain.NewStreamEndedMessage(st.workerID))
	if err != nil {
		l := pkglog.L()
		l.Error().Err(err).Str(pkglog.FieldWorkerID, st.workerID).Msg("failed to encode stream-ended")
	}

	for viewerID := range st.viewers {
		rec, ok := s.clients[viewerID]
		if !ok {
			continue
		}
		if data != nil {
			rec.conn.Send(data)
		}
		if v, ok := rec.role.(domain.Viewer); ok {
			rec.role = domain.Viewer{ViewerID: v.ViewerID}
		}
	}

	delete(s.streams, st.workerID)
	metrics.ActiveStreams.Set(float64(s.liveCountLocked()))

	s.emit(domain.StreamEvent{
		Type:     domain.EventStreamEnded,
		WorkerID: st.workerID,
		ClientID: st.workerClient,
		Count:    viewers,
		Reason:   reason,
	})
}
