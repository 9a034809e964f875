package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ignite/health-surveillance/internal/pkg/logger"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err.Error())
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes a JSON error response. Use for client errors (4xx).
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// ErrorWithCode writes a JSON error response carrying a machine-readable code.
func ErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}

// TooManyRequests writes a 429 error with a Retry-After hint in seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	ErrorWithCode(w, http.StatusTooManyRequests, "rate limit exceeded", "rate_limited")
}

// Unavailable writes a 503 error. Dashboard widgets render it as a
// "temporarily unavailable" state.
func Unavailable(w http.ResponseWriter, message, code string) {
	ErrorWithCode(w, http.StatusServiceUnavailable, message, code)
}

// InternalError writes a 500 error. Logs the real error but returns a
// generic message to the client (never leak internals).
func InternalError(w http.ResponseWriter, err error) {
	logger.Error("internal error", "error", err.Error())
	Error(w, http.StatusInternalServerError, "internal server error")
}

// QueryInt reads an integer query parameter. Missing or non-numeric values
// yield def.
func QueryInt(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
