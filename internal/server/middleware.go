package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware adds CORS headers to responses and records per-request
// metrics.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		start := time.Now()
		next(rw, r)
		duration := time.Since(start)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())
	}
}

// rateLimitMiddleware enforces the per-client image quota.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.imageQuota == nil {
			next(w, r)
			return
		}

		clientID := getClientIP(r)

		var imageBytes int64
		if r.ContentLength > 0 {
			imageBytes = r.ContentLength
		}

		if err := s.imageQuota.Allow(clientID, imageBytes); err != nil {
			var throttled *ThrottledError
			var exceeded *ImageQuotaExceededError
			switch {
			case errors.As(err, &throttled):
				rateLimitHits.WithLabelValues("burst").Inc()
			case errors.As(err, &exceeded):
				rateLimitHits.WithLabelValues(exceeded.Kind).Inc()
			}
			s.handleQuotaError(w, err)
			return
		}

		next(w, r)
	}
}

// handleQuotaError writes the JSON error response for a throttled or
// quota-exceeded request.
func (s *Server) handleQuotaError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var throttled *ThrottledError
	var exceeded *ImageQuotaExceededError
	switch {
	case errors.As(err, &throttled):
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", throttled.RetryAfter.Seconds()))
		w.WriteHeader(http.StatusTooManyRequests)
		response := map[string]interface{}{"error": "rate_limited", "retry_after": throttled.RetryAfter.Seconds(), "message": throttled.Error()}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("failed to encode rate limit response", "error", err)
		}
	case errors.As(err, &exceeded):
		w.Header().Set("X-Quota-Kind", exceeded.Kind)
		w.Header().Set("X-Quota-Limit", strconv.FormatInt(exceeded.Limit, 10))
		w.Header().Set("X-Quota-Used", strconv.FormatInt(exceeded.Used, 10))
		w.Header().Set("X-Quota-Resets", exceeded.Resets.Format(http.TimeFormat))
		w.WriteHeader(http.StatusTooManyRequests)
		response := map[string]interface{}{"error": "quota_exceeded", "kind": exceeded.Kind, "limit": exceeded.Limit, "used": exceeded.Used, "resets": exceeded.Resets.Format(time.RFC3339), "message": exceeded.Error()}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("failed to encode quota exceeded response", "error", err)
		}
	default:
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(map[string]string{"error": "internal_error", "message": "image quota check failed"}); err != nil {
			slog.Error("failed to encode internal error response", "error", err)
		}
	}
}

// getClientIP extracts the client IP address from the request.
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
