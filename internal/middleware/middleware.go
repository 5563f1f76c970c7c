// internal/middleware/middleware.go
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"slawbackend/internal/logger"
)

// Request context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

// Standard API error response
type APIError struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Middleware chain for API endpoints
func APIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return RequestID(Logging(next))
}

// RequestID middleware adds a unique request ID to each request
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// Logging middleware logs all API requests with consistent format
func Logging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.LogInfo("%s %s -> %d (%v) request_id=%s client=%s",
			r.Method, r.URL.Path, rw.statusCode, time.Since(start),
			GetRequestID(r.Context()), logger.GetClientIP(r))
	}
}

// GetRequestID retrieves the request ID from request context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequireMethod rejects requests whose method does not match
func RequireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
				fmt.Sprintf("Method %s not allowed", r.Method), "")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// ParseJSONRequest decodes a JSON request body with size limits
func ParseJSONRequest(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("unexpected content type: %s", ct)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// WriteJSON writes an arbitrary JSON payload with a status code
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.LogError("Failed to encode JSON response: %v", err)
	}
}

// WriteAPISuccess writes the standard success envelope used by the dashboard
func WriteAPISuccess(w http.ResponseWriter, r *http.Request, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if _, ok := payload["status"]; !ok {
		payload["status"] = "success"
	}
	WriteJSON(w, http.StatusOK, payload)
}

// WriteAPIError writes the standard error envelope and logs it
func WriteAPIError(w http.ResponseWriter, r *http.Request, status int, code, message, details string) {
	logger.LogHTTPError(r, status, fmt.Errorf("%s: %s %s", code, message, details))
	WriteJSON(w, status, APIError{
		Status:    "error",
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: GetRequestID(r.Context()),
	})
}

// responseWriter tracks the status code written by a handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}
