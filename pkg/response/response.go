package response

import (
	"encoding/json"
	"net/http"

	pkglog "github.com/psxio/the-platform/pkg/log"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := pkglog.Ctx(r.Context())
		l.Warn().Err(err).Msg("failed to write response body")
	}
}

// OK sends a 200 response.
func OK(w http.ResponseWriter, r *http.Request, v interface{}) {
	JSON(w, r, http.StatusOK, v)
}

// Error sends an error response.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	JSON(w, r, status, ErrorResponse{Error: ErrorInfo{Code: code, Message: message}})
}

// BadRequest sends a 400 error response.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, "BAD_REQUEST", message)
}

// NotFound sends a 404 error response.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusNotFound, "NOT_FOUND", message)
}
