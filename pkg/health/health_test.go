package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker(t *testing.T) {
	t.Run("no checks reports healthy", func(t *testing.T) {
		h := New()

		status, err := h.CheckReadiness(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
		assert.Empty(t, status.Checks)
	})

	t.Run("passing check reports healthy", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck(NewCheckFunc("always-ok", func(ctx context.Context) error {
			return nil
		}))

		status, err := h.CheckReadiness(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
		require.Len(t, status.Checks, 1)
		assert.Equal(t, "always-ok", status.Checks[0].Name)
	})

	t.Run("failure below threshold still reports healthy", func(t *testing.T) {
		h := New(WithFailureThreshold(3))
		h.AddReadinessCheck(NewCheckFunc("flaky", func(ctx context.Context) error {
			return errors.New("boom")
		}))

		status, err := h.CheckReadiness(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
	})

	t.Run("failure at threshold reports unhealthy", func(t *testing.T) {
		h := New(WithFailureThreshold(2))
		h.AddReadinessCheck(NewCheckFunc("down", func(ctx context.Context) error {
			return errors.New("boom")
		}))

		_, err := h.CheckReadiness(context.Background())
		require.NoError(t, err)

		status, err := h.CheckReadiness(context.Background())
		require.Error(t, err)
		assert.False(t, status.Healthy)
		assert.Equal(t, "boom", status.Checks[0].Error)
	})

	t.Run("success resets failure count", func(t *testing.T) {
		var fail bool
		h := New(WithFailureThreshold(2))
		h.AddReadinessCheck(NewCheckFunc("recovering", func(ctx context.Context) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		}))

		fail = true
		_, err := h.CheckReadiness(context.Background())
		require.NoError(t, err)

		fail = false
		_, err = h.CheckReadiness(context.Background())
		require.NoError(t, err)

		// Counter was reset, one more failure stays below threshold
		fail = true
		status, err := h.CheckReadiness(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
	})

	t.Run("check is bounded by the configured timeout", func(t *testing.T) {
		h := New(WithTimeout(20*time.Millisecond), WithFailureThreshold(1))
		h.AddReadinessCheck(NewCheckFunc("slow", func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		}))

		start := time.Now()
		status, err := h.CheckReadiness(context.Background())
		require.Error(t, err)
		assert.False(t, status.Healthy)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("liveness and readiness checks are independent", func(t *testing.T) {
		h := New(WithFailureThreshold(1))
		h.AddLivenessCheck(NewCheckFunc("alive", func(ctx context.Context) error { return nil }))
		h.AddReadinessCheck(NewCheckFunc("not-ready", func(ctx context.Context) error {
			return errors.New("warming up")
		}))

		_, err := h.CheckLiveness(context.Background())
		assert.NoError(t, err)

		_, err = h.CheckReadiness(context.Background())
		assert.Error(t, err)
	})
}

func TestHTTPHandlers(t *testing.T) {
	t.Run("liveness handler returns 200 when healthy", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck(NewCheckFunc("ok", func(ctx context.Context) error { return nil }))

		rec := httptest.NewRecorder()
		h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "ok", resp.Checks["ok"].Status)
	})

	t.Run("readiness handler returns 503 when unhealthy", func(t *testing.T) {
		h := New(WithFailureThreshold(1))
		h.AddReadinessCheck(NewCheckFunc("upstream", func(ctx context.Context) error {
			return errors.New("unreachable")
		}))

		rec := httptest.NewRecorder()
		h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "error", resp.Checks["upstream"].Status)
		assert.Contains(t, resp.Checks["upstream"].Error, "unreachable")
	})
}
