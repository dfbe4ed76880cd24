// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/leadcam/internal/platform"
	"golang.org/x/text/language"
)

// RefTracker creates temporary references whose release is guaranteed.
type RefTracker interface {
	TrackReference(refs platform.References, data []byte, mimeType string, ttl time.Duration) (platform.Reference, error)
	Release(id string) error
}

// Default reference lifetimes.
const (
	DefaultSaveRefTTL     = 5 * time.Minute
	DefaultDownloadRefTTL = 100 * time.Millisecond
)

// ShareStrategy hands the file to the native share sheet.
type ShareStrategy struct {
	sharer platform.Sharer
	caps   platform.Capabilities
}

// NewShareStrategy creates the native share strategy.
func NewShareStrategy(sharer platform.Sharer, caps platform.Capabilities) *ShareStrategy {
	return &ShareStrategy{sharer: sharer, caps: caps}
}

func (s *ShareStrategy) Name() StrategyName { return NativeShare }

// Deliver shares the payload. Dismissing the sheet is a user cancellation.
func (s *ShareStrategy) Deliver(ctx context.Context, p Payload) (Outcome, error) {
	if !s.caps.CanShareFiles {
		return OutcomeUnsupported, ErrExportUnsupported
	}
	data := platform.ShareData{
		Title: p.Title,
		Text:  p.Text,
		Files: []platform.File{{Name: p.Filename, MimeType: p.MimeType, Data: p.Data}},
	}
	if !s.sharer.CanShare(data) {
		return OutcomeUnsupported, fmt.Errorf("%w: share sheet rejects %s", ErrExportUnsupported, p.MimeType)
	}
	if err := s.sharer.Share(ctx, data); err != nil {
		if platform.IsAbort(err) {
			return OutcomeUserCancelled, nil
		}
		return OutcomeFailed, err
	}
	return OutcomeSucceeded, nil
}

// SaveStrategy uses the save-file picker when available. On mobile platforms
// without one it opens the data in a new browsing context and shows the
// steps to finish saving by hand.
type SaveStrategy struct {
	saver    platform.FileSaver
	opener   platform.Opener
	refs     platform.References
	tracker  RefTracker
	notifier Notifier
	caps     platform.Capabilities
	lang     language.Tag
	ttl      time.Duration
}

// SaveOption configures a SaveStrategy.
type SaveOption func(*SaveStrategy)

// WithSaveRefTTL sets how long the opened reference stays valid.
func WithSaveRefTTL(d time.Duration) SaveOption {
	return func(s *SaveStrategy) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithSaveLanguage selects the instruction language.
func WithSaveLanguage(tag language.Tag) SaveOption {
	return func(s *SaveStrategy) { s.lang = tag }
}

// NewSaveStrategy creates the platform save strategy.
func NewSaveStrategy(p platform.Platform, tracker RefTracker, notifier Notifier, opts ...SaveOption) *SaveStrategy {
	s := &SaveStrategy{
		saver:    p,
		opener:   p,
		refs:     p,
		tracker:  tracker,
		notifier: notifier,
		caps:     p.Capabilities(),
		lang:     language.English,
		ttl:      DefaultSaveRefTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SaveStrategy) Name() StrategyName { return PlatformSave }

func (s *SaveStrategy) Deliver(ctx context.Context, p Payload) (Outcome, error) {
	switch {
	case s.caps.CanUseFileSystemAccess:
		if err := s.saver.SaveFile(ctx, p.Filename, p.MimeType, p.Data); err != nil {
			if platform.IsAbort(err) {
				return OutcomeUserCancelled, nil
			}
			return OutcomeFailed, err
		}
		return OutcomeSucceeded, nil

	case s.caps.CanOpenWindow && s.caps.Family.Mobile():
		ref, err := s.tracker.TrackReference(s.refs, p.Data, p.MimeType, s.ttl)
		if err != nil {
			return OutcomeFailed, err
		}
		if err := s.opener.OpenReference(ctx, ref); err != nil {
			_ = s.tracker.Release(string(ref))
			return OutcomeFailed, fmt.Errorf("open reference: %w", err)
		}
		if s.notifier != nil {
			s.notifier.Notify(ctx, SaveInstructions(s.caps.Family, s.lang, p.Filename, p.MimeType))
		}
		return OutcomeSucceeded, nil

	default:
		return OutcomeUnsupported, ErrExportUnsupported
	}
}

// DownloadStrategy forces a download through a temporary reference.
type DownloadStrategy struct {
	downloader platform.Downloader
	refs       platform.References
	tracker    RefTracker
	caps       platform.Capabilities
	ttl        time.Duration
}

// NewDownloadStrategy creates the forced download strategy. ttl bounds how
// long the reference outlives the click; zero uses DefaultDownloadRefTTL.
func NewDownloadStrategy(downloader platform.Downloader, refs platform.References, tracker RefTracker, caps platform.Capabilities, ttl time.Duration) *DownloadStrategy {
	if ttl <= 0 {
		ttl = DefaultDownloadRefTTL
	}
	return &DownloadStrategy{downloader: downloader, refs: refs, tracker: tracker, caps: caps, ttl: ttl}
}

func (s *DownloadStrategy) Name() StrategyName { return ForcedDownload }

func (s *DownloadStrategy) Deliver(ctx context.Context, p Payload) (Outcome, error) {
	if !s.caps.CanDownload {
		return OutcomeUnsupported, ErrExportUnsupported
	}
	ref, err := s.tracker.TrackReference(s.refs, p.Data, p.MimeType, s.ttl)
	if err != nil {
		return OutcomeFailed, err
	}
	if err := s.downloader.Download(ctx, ref, p.Filename); err != nil {
		_ = s.tracker.Release(string(ref))
		return OutcomeFailed, fmt.Errorf("download: %w", err)
	}
	return OutcomeSucceeded, nil
}

// DefaultStrategies returns the three strategies in priority order.
func DefaultStrategies(p platform.Platform, tracker RefTracker, notifier Notifier, lang language.Tag, saveTTL, downloadTTL time.Duration) []Strategy {
	caps := p.Capabilities()
	return []Strategy{
		NewShareStrategy(p, caps),
		NewSaveStrategy(p, tracker, notifier, WithSaveRefTTL(saveTTL), WithSaveLanguage(lang)),
		NewDownloadStrategy(p, p, tracker, caps, downloadTTL),
	}
}
