package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		RateLimitRPS: 50,
	}, logrus.New())
	t.Cleanup(c.Close)
	return c
}

func TestFetchPageDecodesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Asset{{ID: "btc", Symbol: "btc"}})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	assets, err := c.FetchPage(context.Background(), 1, 100, 3)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "btc", assets[0].ID)
}

func TestFetchPageRetriesOn500ThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]Asset{{ID: "eth"}})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	assets, err := c.FetchPage(context.Background(), 1, 100, 3)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestFetchPageIsTerminalOn400(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.FetchPage(context.Background(), 1, 100, 5)
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "a 400 must not be retried")
}

func TestFetchPageHonorsRetryAfterHeader(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]Asset{{ID: "sol"}})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	start := time.Now()
	_, err := c.FetchPage(context.Background(), 1, 100, 2)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 1*time.Second, "Retry-After: 1 must delay the retry by at least 1s")
}

func TestFetchPageExhaustsAttemptsAndReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.FetchPage(context.Background(), 1, 100, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("page %d failed after %d attempts", 1, 2))
}
