package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryAfterParsesSeconds(t *testing.T) {
	assert.Equal(t, 10*time.Second, retryAfter("10"))
}

func TestRetryAfterParsesHTTPDate(t *testing.T) {
	future := time.Now().Add(5 * time.Second).UTC().Format(http.TimeFormat)
	d := retryAfter(future)
	assert.InDelta(t, 5*time.Second, d, float64(2*time.Second))
}

func TestRetryAfterEmptyOrGarbage(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, time.Duration(0), retryAfter("not-a-date"))
}

func TestWithJitterZeroIsUnchanged(t *testing.T) {
	assert.Equal(t, 2*time.Second, withJitter(2*time.Second, 0))
}

func TestWithJitterStaysWithinBound(t *testing.T) {
	base := 1 * time.Second
	for i := 0; i < 50; i++ {
		got := withJitter(base, 0.2)
		assert.InDelta(t, base, got, float64(base)*0.2+1)
	}
}

func TestDoRetriesOn500ThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Jitter: 0}
	resp, err := Do(context.Background(), srv.Client(), cfg, nil, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestDoReturnsErrorAfterExhaustingAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: 5 * time.Millisecond, MaxDelay: 10 * time.Millisecond, Jitter: 0}
	_, err := Do(context.Background(), srv.Client(), cfg, nil, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	assert.Error(t, err)
}
