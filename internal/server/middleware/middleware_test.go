package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/observability"

	"github.com/go-chi/chi/v5"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// RequestID
// ==========================

func TestRequestID_Generates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	respID := rr.Header().Get(RequestIDHeader)
	assert.Len(t, respID, 36)
	assert.Equal(t, respID, seen)
}

func TestRequestID_PreservesClientID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-123", GetRequestID(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "trace-123", rr.Header().Get(RequestIDHeader))
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

// ==========================
// Logger
// ==========================

func TestLogger_CapturesStatusAndBytes(t *testing.T) {
	var ww *responseWriter
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short and stout"))
	})

	rr := httptest.NewRecorder()
	Logger(logger.NewTestLogger(t))(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	require.NotNil(t, ww)
	assert.Equal(t, http.StatusTeapot, ww.status)
	assert.Equal(t, 15, ww.bytes)
	assert.Equal(t, rr, ww.Unwrap())
}

// ==========================
// RateLimit
// ==========================

func TestRateLimit_ByIP(t *testing.T) {
	handler := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/submit", nil)
	other.RemoteAddr = "198.51.100.1:5000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimit_ByHeader(t *testing.T) {
	handler := RateLimitByHeader("x-api-key", 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/phones", nil)
		req.Header.Set("x-api-key", key)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("key-a"))
	assert.Equal(t, http.StatusTooManyRequests, send("key-a"))
	assert.Equal(t, http.StatusOK, send("key-b"))
}

func TestRateLimit_Disabled(t *testing.T) {
	handler := RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

// ==========================
// Metrics
// ==========================

func TestMetrics_UsesRoutePattern(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := observability.New("middleware-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Patch("/admin/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/admin/leads/abc-123", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	routes := map[string]bool{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "http_route" {
					routes[l.GetValue()] = true
				}
			}
		}
	}
	assert.True(t, routes["/admin/leads/{id}"], "routes recorded: %v", routes)
	assert.False(t, routes["/admin/leads/abc-123"])
}
