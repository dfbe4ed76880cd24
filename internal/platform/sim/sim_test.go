// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sim

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/leadcam/internal/cache"
	"github.com/ManuGH/leadcam/internal/capture"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/refserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newSim(t *testing.T, mutate func(*Config)) *Platform {
	t.Helper()
	blobs := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = blobs.Close() })

	cfg := DefaultConfig()
	cfg.Timeslice = 5 * time.Millisecond
	cfg.ChunkSize = 16
	if mutate != nil {
		mutate(&cfg)
	}
	p := New(cfg, refserver.NewStore(blobs, "blob:sim", time.Minute))
	t.Cleanup(p.Close)
	return p
}

func TestLevel(t *testing.T) {
	ladder := capture.DefaultLadder(capture.DefaultLadderOptions())(platform.FacingUser)
	require.Len(t, ladder, 4)
	for _, prof := range ladder {
		assert.Equal(t, prof.Name, Level(prof.Constraints))
	}
}

func TestAcquire_FallsBackPastFailingProfiles(t *testing.T) {
	p := newSim(t, func(c *Config) {
		c.FailProfiles = map[string]string{
			LevelIdeal:   platform.NameOverconstrained,
			LevelReduced: platform.NameNotReadable,
		}
	})
	n := capture.NewNegotiator(p, p)

	h, err := n.AcquireStream(context.Background(), platform.FacingUser)
	require.NoError(t, err)
	defer h.Release()

	assert.Equal(t, LevelFacingOnly, h.Profile())
	assert.Equal(t, platform.FacingUser, h.Facing())
	assert.Equal(t, 2, p.LiveTracks())
}

func TestAcquire_PermissionDenied(t *testing.T) {
	p := newSim(t, func(c *Config) { c.DenyPermission = true })
	n := capture.NewNegotiator(p, p)

	_, err := n.AcquireStream(context.Background(), platform.FacingEnvironment)
	assert.ErrorIs(t, err, capture.ErrPermissionDenied)
}

func TestAcquire_MissingFacingFallsToMinimal(t *testing.T) {
	p := newSim(t, func(c *Config) {
		c.Devices = []platform.DeviceInfo{
			{ID: "webcam", Kind: platform.DeviceVideoInput, Label: "Webcam", Facing: platform.FacingUser},
		}
	})
	n := capture.NewNegotiator(p, p)

	h, err := n.AcquireStream(context.Background(), platform.FacingEnvironment)
	require.NoError(t, err)
	defer h.Release()

	assert.Equal(t, LevelMinimal, h.Profile())
	assert.Equal(t, platform.FacingUser, h.Facing())
	assert.Equal(t, 1, p.LiveTracks(), "no microphone configured")
}

func TestLoseDevice(t *testing.T) {
	p := newSim(t, nil)
	s, err := p.AcquireMedia(context.Background(), platform.Constraints{})
	require.NoError(t, err)

	assert.Equal(t, 2, p.LoseDevice())
	for _, tr := range s.Tracks() {
		select {
		case <-tr.Ended():
		default:
			t.Fatalf("%s track still live", tr.Kind())
		}
	}
	assert.Zero(t, p.LoseDevice())
}

func TestIsTypeSupported(t *testing.T) {
	p := newSim(t, nil)
	assert.True(t, p.IsTypeSupported("video/webm;codecs=vp9,opus"))
	assert.True(t, p.IsTypeSupported("video/webm"))
	assert.False(t, p.IsTypeSupported("video/mp4"))
	assert.False(t, p.IsTypeSupported("video/webm;codecs=h264"))
}

func TestNew_ZeroConfigUsesDefaults(t *testing.T) {
	blobs := cache.NewMemoryCache(0)
	defer blobs.Close()
	p := New(Config{}, refserver.NewStore(blobs, "blob:sim", 0))
	defer p.Close()

	for _, m := range DefaultConfig().MimeTypes {
		assert.True(t, p.IsTypeSupported(m), m)
	}
	devices, err := p.EnumerateDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, len(DefaultConfig().Devices))
	assert.True(t, p.Capabilities().CanShareFiles)
}

type chunkLog struct {
	mu     sync.Mutex
	chunks [][]byte
	stops  int
	errs   []error
	done   chan struct{}
}

func (l *chunkLog) handlers() platform.RecorderHandlers {
	l.done = make(chan struct{})
	return platform.RecorderHandlers{
		OnData: func(c []byte) {
			l.mu.Lock()
			l.chunks = append(l.chunks, c)
			l.mu.Unlock()
		},
		OnStop: func() {
			l.mu.Lock()
			l.stops++
			l.mu.Unlock()
			close(l.done)
		},
		OnError: func(err error) {
			l.mu.Lock()
			l.errs = append(l.errs, err)
			l.mu.Unlock()
		},
	}
}

func TestRecorder_EmitsUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := newSim(t, nil)
	s, err := p.AcquireMedia(context.Background(), platform.Constraints{})
	require.NoError(t, err)

	var log chunkLog
	rec, err := p.NewRecorder(s, "video/webm", log.handlers())
	require.NoError(t, err)
	require.NoError(t, rec.Start())
	assert.Equal(t, platform.RecorderRecording, rec.State())

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, rec.Stop())
	assert.Equal(t, platform.RecorderInactive, rec.State())

	select {
	case <-log.done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnStop never fired")
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	require.GreaterOrEqual(t, len(log.chunks), 1, "final flush always emits")
	for i, c := range log.chunks {
		assert.Len(t, c, 16)
		assert.Equal(t, byte(i+1), c[0], "chunks arrive in sequence")
	}
	assert.Equal(t, 1, log.stops)
	assert.Error(t, rec.Stop(), "second stop")
}

func TestRecorder_RejectsUnsupportedType(t *testing.T) {
	p := newSim(t, nil)
	s, err := p.AcquireMedia(context.Background(), platform.Constraints{})
	require.NoError(t, err)

	_, err = p.NewRecorder(s, "video/mp4", platform.RecorderHandlers{})
	assert.Equal(t, platform.NameNotSupported, platform.ErrorName(err))
}

func TestRecorder_FailAfterChunks(t *testing.T) {
	p := newSim(t, func(c *Config) { c.FailAfterChunks = 2 })
	s, err := p.AcquireMedia(context.Background(), platform.Constraints{})
	require.NoError(t, err)

	var log chunkLog
	h := log.handlers()
	var rec platform.Recorder
	onErr := h.OnError
	h.OnError = func(err error) {
		onErr(err)
		_ = rec.Stop()
	}
	rec, err = p.NewRecorder(s, "video/webm", h)
	require.NoError(t, err)
	require.NoError(t, rec.Start())

	select {
	case <-log.done:
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop after error")
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	require.Len(t, log.errs, 1)
	assert.Equal(t, platform.NameNotReadable, platform.ErrorName(log.errs[0]))
	assert.Len(t, log.chunks, 3)
}

func TestClose_FlushesRunningRecorder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	blobs := cache.NewMemoryCache(0)
	defer blobs.Close()
	p := New(Config{Timeslice: time.Hour}, refserver.NewStore(blobs, "blob:sim", 0))

	s, err := p.AcquireMedia(context.Background(), platform.Constraints{})
	require.NoError(t, err)
	var log chunkLog
	rec, err := p.NewRecorder(s, "video/webm", log.handlers())
	require.NoError(t, err)
	require.NoError(t, rec.Start())

	p.Close()
	assert.Equal(t, 1, log.stops)
	assert.Zero(t, p.LiveTracks())
}

func TestShareModes(t *testing.T) {
	data := platform.ShareData{Title: "t", Files: []platform.File{{Name: "a.webm", MimeType: "video/webm", Data: []byte("abc")}}}

	for mode, wantErr := range map[ShareMode]string{
		ShareOK:     "",
		ShareCancel: platform.NameAbort,
		ShareFail:   platform.NameNotAllowed,
	} {
		t.Run(string(mode), func(t *testing.T) {
			p := newSim(t, func(c *Config) { c.ShareMode = mode })
			assert.True(t, p.Capabilities().CanShareFiles)
			assert.True(t, p.CanShare(data))

			err := p.Share(context.Background(), data)
			assert.Equal(t, wantErr, platform.ErrorName(err))
			if wantErr == "" {
				require.NoError(t, err)
				require.Len(t, p.Deliveries(), 1)
				assert.Equal(t, "share", p.Deliveries()[0].Via)
			}
		})
	}

	p := newSim(t, func(c *Config) { c.ShareMode = ShareUnsupported })
	assert.False(t, p.Capabilities().CanShareFiles)
	assert.False(t, p.CanShare(data))
}

func TestParseShareMode(t *testing.T) {
	m, err := ParseShareMode(" Cancel ")
	require.NoError(t, err)
	assert.Equal(t, ShareCancel, m)

	m, err = ParseShareMode("")
	require.NoError(t, err)
	assert.Equal(t, ShareOK, m)

	_, err = ParseShareMode("maybe")
	assert.Error(t, err)
}

func TestDownload_WritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	p := newSim(t, func(c *Config) { c.DownloadDir = dir })

	ref, err := p.CreateTemporaryReference([]byte("video-bytes"), "video/webm")
	require.NoError(t, err)
	require.NoError(t, p.Download(context.Background(), ref, "leadcam_video_1.webm"))

	got, err := os.ReadFile(filepath.Join(dir, "leadcam_video_1.webm"))
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(got))

	require.NoError(t, p.RevokeTemporaryReference(ref))
	err = p.Download(context.Background(), ref, "again.webm")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestSaveFile(t *testing.T) {
	dir := t.TempDir()

	p := newSim(t, nil)
	err := p.SaveFile(context.Background(), "a.webm", "video/webm", []byte("x"))
	assert.Equal(t, platform.NameNotSupported, platform.ErrorName(err))

	p = newSim(t, func(c *Config) { c.FileSystemAccess = true; c.CancelSave = true })
	err = p.SaveFile(context.Background(), "a.webm", "video/webm", []byte("x"))
	assert.True(t, platform.IsAbort(err))

	p = newSim(t, func(c *Config) { c.FileSystemAccess = true; c.DownloadDir = dir })
	require.NoError(t, p.SaveFile(context.Background(), "../escape.webm", "video/webm", []byte("x")))
	_, err = os.Stat(filepath.Join(dir, "escape.webm"))
	assert.NoError(t, err)
}

func TestOpenReference(t *testing.T) {
	p := newSim(t, nil)
	ref, err := p.CreateTemporaryReference([]byte("x"), "video/webm")
	require.NoError(t, err)
	assert.Error(t, p.OpenReference(context.Background(), ref), "popups blocked by default")

	p = newSim(t, func(c *Config) { c.OpenWindow = true })
	ref, err = p.CreateTemporaryReference([]byte("x"), "video/webm")
	require.NoError(t, err)
	require.NoError(t, p.OpenReference(context.Background(), ref))
	assert.Equal(t, []platform.Reference{ref}, p.Opened())
}

func TestCapabilitiesFromUserAgent(t *testing.T) {
	p := newSim(t, func(c *Config) {
		c.UserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"
	})
	assert.Equal(t, platform.FamilyIOS, p.Capabilities().Family)
	assert.True(t, p.Capabilities().CanDownload)
}
