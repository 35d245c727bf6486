package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestAuth(t *testing.T) {
	h := Auth("s3cret")(okHandler())

	cases := []struct {
		name   string
		header func(r *http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer nope")
		}, http.StatusUnauthorized},
		{"valid bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer s3cret")
		}, http.StatusOK},
		{"valid api key header", func(r *http.Request) {
			r.Header.Set("X-API-Key", "s3cret")
		}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tokens", nil)
			tc.header(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAuth_DisabledWithoutKey(t *testing.T) {
	h := Auth("")(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tokens", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type allowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

func (f allowFunc) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return f(ctx, key, limit, window)
}

func TestRateLimit(t *testing.T) {
	var seenKey string
	denied := allowFunc(func(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
		seenKey = key
		return false, nil
	})
	h := RateLimit(denied, 6, time.Minute)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "ratelimit:api:203.0.113.7", seenKey, "first forwarded hop is the client")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	broken := allowFunc(func(context.Context, string, int, time.Duration) (bool, error) {
		return false, errors.New("redis down")
	})
	h := RateLimit(broken, 6, time.Minute)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogging_CapturesStatusAndSize(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("scan scheduled"))
	})

	var rw *responseWriter
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw = w.(*responseWriter)
		handler.ServeHTTP(w, r)
	})

	h := Logging(slog.New(slog.DiscardHandler))(capture)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil))

	require.NotNil(t, rw)
	assert.Equal(t, http.StatusAccepted, rw.statusCode)
	assert.Equal(t, len("scan scheduled"), rw.bytes)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
