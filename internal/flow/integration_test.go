// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package flow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/leadcam/internal/cache"
	"github.com/ManuGH/leadcam/internal/export"
	"github.com/ManuGH/leadcam/internal/platform/sim"
	"github.com/ManuGH/leadcam/internal/reclaim"
	"github.com/ManuGH/leadcam/internal/refserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/text/language"
)

func TestFlow_Simulated(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	blobs := cache.NewMemoryCache(0)
	defer blobs.Close()
	srv := httptest.NewServer(refserver.New(refserver.Config{}, blobs).Handler())
	defer srv.Close()
	store := refserver.NewStore(blobs, srv.URL, time.Minute)

	dir := t.TempDir()
	cfg := sim.DefaultConfig()
	cfg.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"
	cfg.ShareMode = sim.ShareUnsupported
	cfg.Timeslice = 5 * time.Millisecond
	cfg.ChunkSize = 32
	cfg.DownloadDir = dir
	cfg.FailProfiles = map[string]string{sim.LevelIdeal: "OverconstrainedError"}
	p := sim.New(cfg, store)
	defer p.Close()

	rc := reclaim.New(reclaim.WithDefaultTTL(time.Minute))
	defer rc.ReleaseAll()

	coord := export.NewCoordinator(
		export.DefaultStrategies(p, rc, nil, language.English, time.Minute, time.Minute),
		export.WithFamily(p.Capabilities().Family),
	)
	f := New(p, coord, rc)
	ctx := context.Background()

	require.NoError(t, f.Begin())
	require.NoError(t, f.SelectImage("img"))
	require.NoError(t, f.StartRecording(ctx))
	time.Sleep(40 * time.Millisecond)

	blob, err := f.StopRecording(ctx)
	require.NoError(t, err)
	require.Positive(t, blob.Size())
	assert.Zero(t, blob.Size()%32, "whole chunks only")
	assert.Equal(t, "video/webm;codecs=vp9,opus", blob.MimeType())
	assert.Zero(t, p.LiveTracks(), "tracks released after stop")

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	playback := f.Playback()
	resp, err := client.Get(string(playback))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, blob.MimeType(), resp.Header.Get("Content-Type"))

	res, err := f.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, export.ForcedDownload, res.Strategy)

	saved, err := os.ReadFile(filepath.Join(dir, res.Filename))
	require.NoError(t, err)
	assert.Equal(t, blob.Bytes(), saved)

	require.NoError(t, f.Reset())
	resp, err = client.Get(string(playback))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "reset revokes the playback reference")
}
