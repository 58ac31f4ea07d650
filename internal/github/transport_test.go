package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfech/github-dashboard/internal/config"
)

func newTestTransport(t *testing.T, endpoint string) *Transport {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg := config.DefaultGitHubConfig()
	cfg.Token = "test-token"
	cfg.APIBaseURL = endpoint
	cfg.RequestTimeout = 2 * time.Second
	cfg.RateLimit.RequestsPerSecond = 1000

	return NewTransport(cfg, logger, WithRetryConfig(3, time.Millisecond, 10*time.Millisecond))
}

func TestTransport_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("successful request", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": {"viewer": {"login": "alice"}}}`))
		}))
		defer server.Close()

		resp, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query { viewer { login } }"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"viewer": {"login": "alice"}}`, string(resp.Data))
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("graphql errors carry messages and partial data", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": {"repo0": null}, "errors": [{"message": "Could not resolve to a Repository"}]}`))
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.Error(t, err)
		assert.True(t, IsGraphQLError(err))

		var gqlErr *GraphQLError
		require.ErrorAs(t, err, &gqlErr)
		assert.Equal(t, []string{"Could not resolve to a Repository"}, gqlErr.Messages)
		assert.JSONEq(t, `{"repo0": null}`, string(gqlErr.Partial))
	})

	t.Run("401 is an auth error and never retried", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.Error(t, err)
		assert.True(t, IsAuthError(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("403 without rate limit indication is an auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.Error(t, err)
		assert.True(t, IsAuthError(err))
	})

	t.Run("rate limited 403 retries and embeds reset time", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1")
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.Error(t, err)
		assert.True(t, IsRateLimitError(err))
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))

		var rlErr *RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, time.Unix(1, 0), rlErr.ResetTime)
	})

	t.Run("429 retries until success", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": {"ok": true}}`))
		}))
		defer server.Close()

		resp, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Data)
		assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	})

	t.Run("5xx retries with backoff until success", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": {"ok": true}}`))
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	})

	t.Run("5xx exhausts the attempt budget", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.Error(t, err)
		assert.True(t, IsTransientError(err))
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	})

	t.Run("non-JSON body is malformed and never retried", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`<html>not json</html>`))
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.Error(t, err)
		assert.True(t, IsMalformedResponseError(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("missing data field is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		_, err := newTestTransport(t, server.URL).Execute(ctx, Query{Document: "query {}"})
		require.Error(t, err)
		assert.True(t, IsMalformedResponseError(err))
	})

	t.Run("canceled context stops retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestTransport(t, server.URL).Execute(canceled, Query{Document: "query {}"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
