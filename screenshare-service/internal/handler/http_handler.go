package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/psxio/the-platform/pkg/response"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"github.com/psxio/the-platform/screenshare-service/internal/service"
)

// HTTPHandler serves the read-only stream API.
type HTTPHandler struct {
	relay service.RelayService
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(relay service.RelayService) *HTTPHandler {
	return &HTTPHandler{relay: relay}
}

// StreamsResponse is the API response for the stream list.
type StreamsResponse struct {
	Streams []domain.ActiveStream `json:"streams"`
	Total   int                   `json:"total"`
}

// HealthResponse is the API response for /health.
type HealthResponse struct {
	Status string `json:"status"`
	service.Stats
}

// RegisterRoutes registers the HTTP API routes.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/streams", h.ListStreams).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/streams/{worker_id}", h.GetStream).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
}

// ListStreams handles GET /api/v1/streams
func (h *HTTPHandler) ListStreams(w http.ResponseWriter, r *http.Request) {
	streams := h.relay.ActiveStreams()
	response.OK(w, r, StreamsResponse{Streams: streams, Total: len(streams)})
}

// GetStream handles GET /api/v1/streams/{worker_id}
func (h *HTTPHandler) GetStream(w http.ResponseWriter, r *http.Request) {
	workerID := mux.Vars(r)["worker_id"]
	if workerID == "" {
		response.BadRequest(w, r, "worker_id is required")
		return
	}

	stream, ok := h.relay.ActiveStream(workerID)
	if !ok {
		response.NotFound(w, r, "stream not found")
		return
	}
	response.OK(w, r, stream)
}

// HealthCheck handles GET /health
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, HealthResponse{Status: "ok", Stats: h.relay.Stats()})
}
