package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"finflow-invest/internal/api/handler"
)

func newTestLimiter(rps float64, burst int) *RateLimiter {
	return NewRateLimiter(rps, burst, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(h http.Handler, actor, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
	req.RemoteAddr = remoteAddr
	if actor != "" {
		req.Header.Set(handler.ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterPerActor(t *testing.T) {
	rl := newTestLimiter(0.001, 2)
	h := handler.WithActor(rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	assert.Equal(t, http.StatusOK, serve(h, "alice", "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, serve(h, "alice", "10.0.0.2:1"))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "alice", "10.0.0.3:1"))

	// Other actors and anonymous clients have their own buckets.
	assert.Equal(t, http.StatusOK, serve(h, "bob", "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, serve(h, "", "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, serve(h, "", "10.0.0.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "", "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, serve(h, "", "10.0.0.9:1"))
}

func TestRateLimiterResponseBody(t *testing.T) {
	rl := newTestLimiter(0.001, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := newTestLimiter(10, 10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("idle")
	now = now.Add(20 * time.Minute)
	rl.getLimiter("busy")

	assert.Equal(t, 1, rl.Cleanup(10*time.Minute))
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "busy")
	assert.Equal(t, 0, rl.Cleanup(10*time.Minute))
}
