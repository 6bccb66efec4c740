package service

import (
	"fmt"

	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/metrics"
)

func (s *relayService) RegisterWorker(clientID, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}

	switch role := rec.role.(type) {
	case domain.Viewer:
		return fmt.Errorf("%w: viewer connection cannot register as worker %s", ErrRoleConflict, workerID)
	case domain.Worker:
		if role.WorkerID != workerID {
			return fmt.Errorf("%w: already registered as worker %s", ErrRoleConflict, role.WorkerID)
		}
	}
	rec.role = domain.Worker{WorkerID: workerID}

	st := s.streamLocked(workerID)
	takeover := st.workerClient != clientID
	if takeover {
		if st.live() {
			l := pkglog.L()
			l.Warn().
				Str(pkglog.FieldWorkerID, workerID).
				Str(pkglog.FieldClientID, clientID).
				Str("superseded_client_id", st.workerClient).
				Msg("worker re-registered, replacing previous connection")
		}
		st.workerClient = clientID
		st.startedAt = s.now()
	}

	s.sendLocked(rec.conn, domain.NewWorkerRegisteredMessage(clientID, len(st.viewers)))

	if takeover {
		metrics.ActiveStreams.Set(float64(s.liveCountLocked()))
		s.emit(domain.StreamEvent{Type: domain.EventStreamStarted, WorkerID: workerID, ClientID: clientID})
		s.emit(domain.StreamEvent{Type: domain.EventViewerCountChanged, WorkerID: workerID, Count: len(st.viewers)})
	}

	l := pkglog.L()
	l.Info().
		Str(pkglog.FieldClientID, clientID).
		Str(pkglog.FieldWorkerID, workerID).
		Int(pkglog.FieldViewerCount, len(st.viewers)).
		Msg("worker registered")
	return nil
}

func (s *relayService) SubscribeViewer(clientID, viewerID, targetWorkerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}

	rejoin := false
	switch role := rec.role.(type) {
	case domain.Worker:
		return fmt.Errorf("%w: worker %s cannot subscribe", ErrRoleConflict, role.WorkerID)
	case domain.Viewer:
		rejoin = role.Watching == targetWorkerID
		if role.Watching != "" && !rejoin {
			s.detachLocked(clientID, role.Watching)
		}
	}

	// Any entry counts as active, including one that only holds waiting
	// viewers.
	_, active := s.streams[targetWorkerID]
	st := s.streamLocked(targetWorkerID)
	st.viewers[clientID] = struct{}{}
	rec.role = domain.Viewer{ViewerID: viewerID, Watching: targetWorkerID}

	s.sendLocked(rec.conn, domain.NewSubscribedMessage(targetWorkerID, active))
	if st.lastFrame != nil {
		s.deliverFrameLocked(rec.conn, st.lastFrame)
	}
	if !rejoin {
		s.notifyViewerCountLocked(st)
	}

	l := pkglog.L()
	l.Info().
		Str(pkglog.FieldClientID, clientID).
		Str(pkglog.FieldViewerID, viewerID).
		Str(pkglog.FieldWorkerID, targetWorkerID).
		Bool("stream_active", active).
		Msg("viewer subscribed")
	return nil
}

func (s *relayService) UnsubscribeViewer(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}

	viewer, ok := rec.role.(domain.Viewer)
	if !ok || viewer.Watching == "" {
		return nil
	}

	s.detachLocked(clientID, viewer.Watching)
	rec.role = domain.Viewer{ViewerID: viewer.ViewerID}

	l := pkglog.L()
	l.Info().
		Str(pkglog.FieldClientID, clientID).
		Str(pkglog.FieldWorkerID, viewer.Watching).
		Msg("viewer unsubscribed")
	return nil
}

// detachLocked removes a viewer from a stream and reports the new count.
// A stream left with no viewers and no worker is dropped.
func (s *relayService) detachLocked(clientID, workerID string) {
	st, ok := s.streams[workerID]
	if !ok {
		return
	}
	if _, ok := st.viewers[clientID]; !ok {
		return
	}
	delete(st.viewers, clientID)

	if !st.live() && len(st.viewers) == 0 {
		delete(s.streams, workerID)
		return
	}
	s.notifyViewerCountLocked(st)
}

// notifyViewerCountLocked sends the current count to the worker if it has a
// registered connection. Nothing is queued otherwise.
func (s *relayService) notifyViewerCountLocked(st *workerStream) {
	if !st.live() {
		return
	}
	count := len(st.viewers)
	if rec, ok := s.clients[st.workerClient]; ok {
		s.sendLocked(rec.conn, domain.NewViewerCountMessage(st.workerID, count))
	}
	s.emit(domain.StreamEvent{Type: domain.EventViewerCountChanged, WorkerID: st.workerID, Count: count})
}
