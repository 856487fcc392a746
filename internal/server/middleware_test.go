package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorsMiddleware_SetsHeadersAndHandlesOptions(t *testing.T) {
	srv := newTestServer(t)
	srv.corsOrigin = "*"

	called := false
	wrapped := srv.corsMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/v1/detect", nil)
	w := httptest.NewRecorder()
	wrapped(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called, "OPTIONS should short-circuit before reaching the handler")
}

func TestCorsMiddleware_InvokesHandlerForNonOptions(t *testing.T) {
	srv := newTestServer(t)
	called := false
	wrapped := srv.corsMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	wrapped(w, req)

	assert.True(t, called)
}

func TestGetClientIP_PrefersXForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getClientIP(req))
}

func TestGetClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:54321"
	assert.Equal(t, "198.51.100.7", getClientIP(req))
}

func TestRateLimitMiddleware_SkipsWhenNoLimiterConfigured(t *testing.T) {
	srv := newTestServer(t)
	called := false
	wrapped := srv.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/v1/detect", nil)
	w := httptest.NewRecorder()
	wrapped(w, req)

	assert.True(t, called)
}
