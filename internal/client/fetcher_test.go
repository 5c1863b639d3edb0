package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"market/crawler/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetcher(baseURL string) Fetcher {
	return NewFetcher(config.MarketConfig{
		BaseURL:              baseURL,
		Timeout:              5,
		MaxRetries:           3,
		RetryBackoff:         0,
		MaxRequestsPerSecond: 100,
		UserAgent:            "test-agent",
	}, nil)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "meyve", r.URL.Query().Get("category"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"id":"1"}]}`))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	data, err := f.GetJSON(context.Background(), srv.URL, map[string]string{"category": "meyve"})
	require.NoError(t, err)

	m, ok := data.(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, m["products"])
}

func TestGetJSONInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	_, err := f.GetJSON(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestAbsentStatusesDoNotRetry(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(status)
		}))

		f := testFetcher(srv.URL)
		_, err := f.GetHTML(context.Background(), srv.URL, nil)

		assert.ErrorIs(t, err, ErrAbsent)
		assert.Equal(t, int32(1), hits.Load(), "status %d must abandon without retrying", status)
		srv.Close()
	}
}

func TestTransientFailuresExhaustRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	_, err := f.GetHTML(context.Background(), srv.URL, nil)

	assert.ErrorIs(t, err, ErrExhausted)
	assert.NotErrorIs(t, err, ErrAbsent)
	assert.Equal(t, int32(3), hits.Load())
}

func TestTransientFailureThenSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := testFetcher(srv.URL)
	body, err := f.GetHTML(context.Background(), srv.URL, nil)

	require.NoError(t, err)
	assert.Contains(t, body, "ok")
	assert.Equal(t, int32(2), hits.Load())
}

func TestSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, Sleep(ctx, time.Second))
	assert.NoError(t, Sleep(context.Background(), 0))
}
