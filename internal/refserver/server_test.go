// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package refserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/leadcam/internal/cache"
	"github.com/ManuGH/leadcam/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *Store) {
	t.Helper()
	blobs := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = blobs.Close() })

	srv := httptest.NewServer(New(cfg, blobs).Handler())
	t.Cleanup(srv.Close)
	return srv, NewStore(blobs, srv.URL, time.Minute)
}

func TestServeReference(t *testing.T) {
	srv, store := newTestServer(t, Config{})

	ref, err := store.CreateTemporaryReference([]byte("recorded-bytes"), "video/webm")
	require.NoError(t, err)
	assert.Contains(t, string(ref), srv.URL+"/refs/")

	resp, err := http.Get(string(ref))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/webm", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "recorded-bytes", string(body))
}

func TestServeReference_Range(t *testing.T) {
	_, store := newTestServer(t, Config{})

	ref, err := store.CreateTemporaryReference([]byte("0123456789"), "video/mp4")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, string(ref), nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=2-5")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "2345", string(body))
}

func TestRevokedReferenceIsGone(t *testing.T) {
	_, store := newTestServer(t, Config{})

	ref, err := store.CreateTemporaryReference([]byte("x"), "text/plain")
	require.NoError(t, err)
	require.NoError(t, store.RevokeTemporaryReference(ref))

	resp, err := http.Get(string(ref))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Not Found", payload["error"])

	_, err = store.Read(context.Background(), ref)
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestStore_RejectsForeignReference(t *testing.T) {
	_, store := newTestServer(t, Config{})
	assert.Error(t, store.RevokeTemporaryReference("blob:elsewhere"))

	_, ok := store.ID("http://host/refs/")
	assert.False(t, ok)
}

func TestRateLimit(t *testing.T) {
	srv, store := newTestServer(t, Config{RateLimit: 2, RateWindow: time.Minute})
	ref, err := store.CreateTemporaryReference([]byte("x"), "text/plain")
	require.NoError(t, err)

	var last *http.Response
	for i := 0; i < 3; i++ {
		resp, err := http.Get(string(ref))
		require.NoError(t, err)
		_ = resp.Body.Close()
		last = resp
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.Equal(t, "60", last.Header.Get("Retry-After"))

	// Health checks sit outside the limited group.
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Config{ServiceName: "leadcam-test"})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadiness(t *testing.T) {
	mgr := health.NewManager("test")
	var down atomic.Bool
	mgr.Register(health.CheckerFunc{CheckName: "cache", Fn: func(context.Context) health.CheckResult {
		if down.Load() {
			return health.CheckResult{Status: health.StatusUnhealthy, Error: "unreachable"}
		}
		return health.CheckResult{Status: health.StatusHealthy}
	}})
	srv, _ := newTestServer(t, Config{Health: mgr})

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down.Store(true)
	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body health.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unreachable", body.Checks["cache"].Error)
}

func TestShouldTrace(t *testing.T) {
	for path, want := range map[string]bool{
		"/healthz":   false,
		"/readyz":    false,
		"/metrics":   false,
		"/refs/abcd": true,
	} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		assert.Equal(t, want, shouldTrace(r), path)
	}
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	blobs := cache.NewMemoryCache(0)
	defer blobs.Close()

	s := New(Config{ListenAddr: "127.0.0.1:0"}, blobs)
	ctx, cancel := context.WithCancel(context.Background())

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe(ctx, func(addr string) { addrCh <- addr })
	}()

	addr := <-addrCh
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
