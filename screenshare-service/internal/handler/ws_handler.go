package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/screenshare-service/internal/config"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/hub"
	"github.com/psxio/the-platform/screenshare-service/internal/metrics"
	"github.com/psxio/the-platform/screenshare-service/internal/service"
)

// WSHandler upgrades connections and dispatches their messages to the relay.
type WSHandler struct {
	relay    service.RelayService
	config   config.WebSocketConfig
	upgrader websocket.Upgrader
	pong     []byte
}

// NewWSHandler creates a new WebSocket handler. An allowedOrigins entry of
// "*" accepts any origin.
func NewWSHandler(relay service.RelayService, cfg config.WebSocketConfig, allowedOrigins []string) *WSHandler {
	pong, err := domain.Encode(domain.NewPongMessage())
	if err != nil {
		panic(err)
	}

	return &WSHandler{
		relay:  relay,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		pong: pong,
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Capture agents are not browsers and send no Origin.
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *WSHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.Ctx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), conn, h.config)
	client.SetDisconnectHandler(func(c *hub.Client) {
		h.relay.Disconnect(c.ID())
	})
	h.relay.Connect(client)

	_, l = pkglog.WithClient(r.Context(), client.ID())
	l.Info().Msg("client connected")

	go client.WritePump()
	client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, data []byte) {
	l := pkglog.L()

	msg, err := domain.Decode(data)
	if err != nil {
		metrics.MalformedMessages.Inc()
		l.Debug().Err(err).Str(pkglog.FieldClientID, client.ID()).Msg("dropping undecodable message")
		return
	}
	metrics.MessagesTotal.WithLabelValues(msg.Kind()).Inc()

	switch m := msg.(type) {
	case *domain.WorkerRegister:
		err = h.relay.RegisterWorker(client.ID(), m.UserID)

	case *domain.ViewerSubscribe:
		err = h.relay.SubscribeViewer(client.ID(), m.ViewerID, m.TargetUserID)

	case *domain.ViewerUnsubscribe:
		err = h.relay.UnsubscribeViewer(client.ID())

	case *domain.ScreenFrame:
		if !client.AllowFrame() {
			metrics.FramesDropped.WithLabelValues(metrics.DropRateLimited).Inc()
			l.Debug().
				Str(pkglog.FieldClientID, client.ID()).
				Str(pkglog.FieldWorkerID, m.WorkerID).
				Msg("frame rate limit exceeded")
			return
		}
		err = h.relay.PublishFrame(client.ID(), m)

	case *domain.StreamStatus:
		err = h.relay.PublishStatus(client.ID(), m.WorkerID, *m.IsStreaming)

	case *domain.Ping:
		err = client.Send(h.pong)
	}

	if err == nil {
		return
	}

	switch {
	case errors.Is(err, service.ErrRoleConflict), errors.Is(err, service.ErrNotRegisteredWorker):
		metrics.RoleViolations.Inc()
		l.Warn().Err(err).
			Str(pkglog.FieldClientID, client.ID()).
			Str(pkglog.FieldMsgType, msg.Kind()).
			Msg("message rejected for connection role")
	case errors.Is(err, service.ErrUnknownClient), errors.Is(err, domain.ErrConnClosed):
		l.Debug().Err(err).Str(pkglog.FieldClientID, client.ID()).Msg("message from closed connection")
	default:
		l.Error().Err(err).
			Str(pkglog.FieldClientID, client.ID()).
			Str(pkglog.FieldMsgType, msg.Kind()).
			Msg("failed to handle message")
	}
}
