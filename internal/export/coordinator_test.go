// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/leadcam/internal/media"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/platform/platformtest"
	"github.com/ManuGH/leadcam/internal/reclaim"
	"github.com/ManuGH/leadcam/internal/resilience"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: time.UnixMilli(1_700_000_000_000)} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type scripted struct {
	name    StrategyName
	outcome Outcome
	err     error
	panics  bool
	block   chan struct{}
	entered chan struct{}

	mu    sync.Mutex
	calls []Payload
}

func (s *scripted) Name() StrategyName { return s.name }

func (s *scripted) Deliver(_ context.Context, p Payload) (Outcome, error) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	s.mu.Unlock()
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	if s.panics {
		panic("boom")
	}
	return s.outcome, s.err
}

func (s *scripted) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func blob(n int) *media.Blob {
	return media.BlobFromBytes(make([]byte, n), "video/webm;codecs=vp9,opus")
}

var ignoreAttemptDetail = cmpopts.IgnoreFields(Attempt{}, "Err", "Duration")

func TestExport_NativeShareSuccessSkipsOtherStrategies(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := platformtest.NewPlatform(platform.Capabilities{
		Family: platform.FamilyIOS, CanShareFiles: true, CanUseFileSystemAccess: true,
		CanOpenWindow: true, CanDownload: true,
	})
	r := reclaim.New()
	defer r.ReleaseAll()

	c := NewCoordinator(DefaultStrategies(p, r, nil, ParseLanguage("en"), 0, 0))
	res, err := c.Export(context.Background(), Request{Blob: blob(64)})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, NativeShare, res.Strategy)
	require.Len(t, p.Sharer.Calls, 1)
	assert.Empty(t, p.Saver.Names)
	assert.Empty(t, p.Opener.Opened)
	assert.Empty(t, p.Downloader.Filenames)
	assert.Equal(t, 0, p.References.LiveCount())

	file := p.Sharer.Calls[0].Files[0]
	assert.Equal(t, res.Filename, file.Name)
	assert.Equal(t, "video/webm;codecs=vp9,opus", file.MimeType)
	assert.Len(t, file.Data, 64)
}

func TestExport_UserCancelledIsTerminal(t *testing.T) {
	p := platformtest.NewPlatform(platform.Capabilities{
		Family: platform.FamilyAndroid, CanShareFiles: true, CanDownload: true,
	})
	p.Sharer.Err = platform.NewMediaError(platform.NameAbort, "share canceled")
	r := reclaim.New()
	defer r.ReleaseAll()

	c := NewCoordinator(DefaultStrategies(p, r, nil, ParseLanguage("en"), 0, 0))
	res, err := c.Export(context.Background(), Request{Blob: blob(10)})
	require.NoError(t, err)

	assert.Equal(t, OutcomeUserCancelled, res.Outcome)
	assert.Len(t, res.Attempts, 1)
	assert.Empty(t, p.Downloader.Filenames)
	assert.Empty(t, res.Instructions)
}

func TestExport_FallsThroughInOrder(t *testing.T) {
	share := &scripted{name: NativeShare, outcome: OutcomeUnsupported, err: ErrExportUnsupported}
	save := &scripted{name: PlatformSave, outcome: OutcomeFailed, err: errors.New("picker crashed")}
	download := &scripted{name: ForcedDownload, outcome: OutcomeSucceeded}

	c := NewCoordinator([]Strategy{share, save, download})
	res, err := c.Export(context.Background(), Request{Blob: blob(10)})
	require.NoError(t, err)

	want := []Attempt{
		{Strategy: NativeShare, Outcome: OutcomeUnsupported},
		{Strategy: PlatformSave, Outcome: OutcomeFailed},
		{Strategy: ForcedDownload, Outcome: OutcomeSucceeded},
	}
	if diff := cmp.Diff(want, res.Attempts, ignoreAttemptDetail); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, ForcedDownload, res.Strategy)
}

func TestExport_PanickingStrategyFallsThrough(t *testing.T) {
	share := &scripted{name: NativeShare, panics: true}
	download := &scripted{name: ForcedDownload, outcome: OutcomeSucceeded}

	c := NewCoordinator([]Strategy{share, download})
	res, err := c.Export(context.Background(), Request{Blob: blob(10)})
	require.NoError(t, err)

	require.Len(t, res.Attempts, 2)
	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)
	assert.ErrorContains(t, res.Attempts[0].Err, "panicked")
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
}

func TestExport_UnknownOutcomeIsFailure(t *testing.T) {
	weird := &scripted{name: NativeShare, outcome: Outcome("maybe")}
	c := NewCoordinator([]Strategy{weird}, WithBreaker(0, 0))

	res, err := c.Export(context.Background(), Request{Blob: blob(10)})
	assert.ErrorIs(t, err, ErrAllStrategiesFailed)
	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)
}

func TestExport_AllStrategiesFailed(t *testing.T) {
	shareErr := errors.New("share broke")
	downloadErr := errors.New("disk full")
	c := NewCoordinator([]Strategy{
		&scripted{name: NativeShare, outcome: OutcomeFailed, err: shareErr},
		&scripted{name: PlatformSave, outcome: OutcomeUnsupported, err: ErrExportUnsupported},
		&scripted{name: ForcedDownload, outcome: OutcomeFailed, err: downloadErr},
	}, WithFamily(platform.FamilyAndroid), WithFilenamePrefix("lead"))

	res, err := c.Export(context.Background(), Request{Blob: blob(10)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllStrategiesFailed)
	assert.ErrorIs(t, err, shareErr)
	assert.ErrorIs(t, err, downloadErr)
	assert.ErrorIs(t, err, ErrExportUnsupported)

	var aerr *AttemptError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, NativeShare, aerr.Strategy)

	assert.Equal(t, OutcomeAllFailed, res.Outcome)
	assert.Len(t, res.Attempts, 3)
	assert.Contains(t, res.Instructions, res.Filename)
	assert.Contains(t, res.Instructions, "Chrome")
}

func TestExport_TooLargeRejectedBeforeAnyStrategy(t *testing.T) {
	share := &scripted{name: NativeShare, outcome: OutcomeSucceeded}
	c := NewCoordinator([]Strategy{share}, WithMaxBytes(50<<20))

	res, err := c.Export(context.Background(), Request{Blob: blob(60 << 20)})
	assert.ErrorIs(t, err, ErrTooLarge)
	var serr *SizeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, int64(60<<20), serr.Size)

	require.NotNil(t, res)
	assert.Equal(t, OutcomeTooLarge, res.Outcome)
	assert.Empty(t, res.Attempts)
	assert.Equal(t, 0, share.callCount())

	// The rejection does not start a cool-down.
	_, err = c.Export(context.Background(), Request{Blob: blob(10)})
	require.NoError(t, err)
	assert.Equal(t, 1, share.callCount())
}

func TestExport_CooldownRejectsRapidRepeat(t *testing.T) {
	clock := newTestClock()
	share := &scripted{name: NativeShare, outcome: OutcomeSucceeded}
	c := NewCoordinator([]Strategy{share}, WithCooldown(2*time.Second), WithClock(clock.Now))
	ctx := context.Background()

	_, err := c.Export(ctx, Request{Blob: blob(10)})
	require.NoError(t, err)

	clock.Advance(time.Second)
	res, err := c.Export(ctx, Request{Blob: blob(10)})
	assert.ErrorIs(t, err, ErrCoolingDown)
	assert.Nil(t, res)
	assert.Equal(t, 1, share.callCount())

	clock.Advance(1500 * time.Millisecond)
	_, err = c.Export(ctx, Request{Blob: blob(10)})
	require.NoError(t, err)
	assert.Equal(t, 2, share.callCount())
}

func TestExport_InFlightRejected(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	share := &scripted{name: NativeShare, outcome: OutcomeSucceeded, block: make(chan struct{}), entered: make(chan struct{})}
	c := NewCoordinator([]Strategy{share}, WithCooldown(0))

	done := make(chan error, 1)
	go func() {
		_, err := c.Export(context.Background(), Request{Blob: blob(10)})
		done <- err
	}()
	<-share.entered

	_, err := c.Export(context.Background(), Request{Blob: blob(10)})
	assert.ErrorIs(t, err, ErrExportInFlight)

	close(share.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, share.callCount())
}

func TestExport_EmptyBlob(t *testing.T) {
	c := NewCoordinator(nil)
	_, err := c.Export(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNothingToExport)
	_, err = c.Export(context.Background(), Request{Blob: media.BlobFromBytes(nil, "video/webm")})
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExport_OpenBreakerSkipsStrategy(t *testing.T) {
	clock := newTestClock()
	save := &scripted{name: PlatformSave, outcome: OutcomeFailed, err: errors.New("picker crashed")}
	download := &scripted{name: ForcedDownload, outcome: OutcomeSucceeded}
	c := NewCoordinator([]Strategy{save, download},
		WithBreaker(1, time.Minute), WithCooldown(time.Second), WithClock(clock.Now))
	ctx := context.Background()

	_, err := c.Export(ctx, Request{Blob: blob(10)})
	require.NoError(t, err)
	assert.Equal(t, resilience.StateOpen, c.Breaker(PlatformSave).State())

	clock.Advance(2 * time.Second)
	res, err := c.Export(ctx, Request{Blob: blob(10)})
	require.NoError(t, err)
	assert.Equal(t, 1, save.callCount(), "open breaker skips the strategy")
	assert.ErrorIs(t, res.Attempts[0].Err, resilience.ErrCircuitOpen)
	assert.Equal(t, OutcomeFailed, res.Attempts[0].Outcome)

	clock.Advance(time.Minute)
	save.outcome, save.err = OutcomeSucceeded, nil
	res, err = c.Export(ctx, Request{Blob: blob(10)})
	require.NoError(t, err)
	assert.Equal(t, PlatformSave, res.Strategy)
	assert.Equal(t, resilience.StateClosed, c.Breaker(PlatformSave).State())
}

func TestExport_FilenameAndText(t *testing.T) {
	clock := newTestClock()
	share := &scripted{name: NativeShare, outcome: OutcomeSucceeded}
	c := NewCoordinator([]Strategy{share}, WithClock(clock.Now), WithFilenamePrefix("imperia_video"))

	res, err := c.Export(context.Background(), Request{
		Blob:     media.BlobFromBytes([]byte("x"), "video/mp4"),
		Metadata: Metadata{Form: Form{ChildName: "Max"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "imperia_video_1700000000000.mp4", res.Filename)

	p := share.calls[0]
	assert.Equal(t, "LeadCam video", p.Title)
	assert.Contains(t, p.Text, "Child: Max")

	clock.Advance(time.Hour)
	res, err = c.Export(context.Background(), Request{Blob: media.BlobFromBytes([]byte("x"), "text/plain"), Filename: "lead-1.txt"})
	require.NoError(t, err)
	assert.Equal(t, "lead-1.txt", res.Filename)
}

func TestExport_AllFailedLeadUsesFileWording(t *testing.T) {
	c := NewCoordinator([]Strategy{
		&scripted{name: ForcedDownload, outcome: OutcomeFailed, err: errors.New("disk full")},
	}, WithFamily(platform.FamilyDesktop))

	lead := media.BlobFromBytes([]byte("Lead record\n"), LeadMimeType)
	res, err := c.Export(context.Background(), Request{Blob: lead, Filename: "lead-1.txt"})
	require.ErrorIs(t, err, ErrAllStrategiesFailed)
	assert.Contains(t, res.Instructions, `The file "lead-1.txt"`)
	assert.NotContains(t, res.Instructions, "video")
}
