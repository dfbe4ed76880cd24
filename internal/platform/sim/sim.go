// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sim is a headless platform.Platform. It fakes cameras, a chunked
// recorder, the share sheet and file delivery so the capture and export
// pipeline can run outside a browser.
package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/leadcam/internal/cache"
	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// ShareMode selects how the simulated share sheet behaves.
type ShareMode string

const (
	ShareOK          ShareMode = "ok"
	ShareCancel      ShareMode = "cancel"
	ShareFail        ShareMode = "fail"
	ShareUnsupported ShareMode = "unsupported"
)

// ParseShareMode maps a configured value to a ShareMode.
func ParseShareMode(s string) (ShareMode, error) {
	switch m := ShareMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ShareOK, ShareCancel, ShareFail, ShareUnsupported:
		return m, nil
	case "":
		return ShareOK, nil
	default:
		return "", fmt.Errorf("unknown share mode %q", s)
	}
}

// ReferenceStore creates references and reads their bytes back.
type ReferenceStore interface {
	platform.References
	Read(ctx context.Context, ref platform.Reference) (cache.Item, error)
}

// Config describes the simulated device.
type Config struct {
	UserAgent string
	Devices   []platform.DeviceInfo
	MimeTypes []string

	DenyPermission bool
	// FailProfiles maps a constraint Level to the DOM error name it fails with.
	FailProfiles map[string]string

	Timeslice       time.Duration
	ChunkSize       int
	FailAfterChunks int

	ShareMode        ShareMode
	FileSystemAccess bool
	CancelSave       bool
	OpenWindow       bool
	// DownloadDir receives downloaded and saved files. Empty keeps them in memory only.
	DownloadDir string
}

// DefaultConfig is an Android phone that supports WebM and the share sheet.
func DefaultConfig() Config {
	return Config{
		UserAgent: "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/126.0 Mobile Safari/537.36",
		Devices:   DefaultDevices(),
		MimeTypes: []string{"video/webm;codecs=vp9,opus", "video/webm;codecs=vp8,opus", "video/webm"},
		Timeslice: 100 * time.Millisecond,
		ChunkSize: 4096,
		ShareMode: ShareOK,
	}
}

// Delivery records one file that left the simulated device.
type Delivery struct {
	Via      string
	Name     string
	MimeType string
	Size     int
	Path     string
}

// Platform implements platform.Platform.
type Platform struct {
	cfg    Config
	caps   platform.Capabilities
	refs   ReferenceStore
	logger zerolog.Logger

	mu         sync.Mutex
	tracks     []*track
	recorders  map[*recorder]struct{}
	deliveries []Delivery
	opened     []platform.Reference
}

// New builds a simulated platform backed by refs for temporary references.
func New(cfg Config, refs ReferenceStore) *Platform {
	def := DefaultConfig()
	if len(cfg.Devices) == 0 {
		cfg.Devices = def.Devices
	}
	if len(cfg.MimeTypes) == 0 {
		cfg.MimeTypes = def.MimeTypes
	}
	if cfg.Timeslice <= 0 {
		cfg.Timeslice = def.Timeslice
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ShareMode == "" {
		cfg.ShareMode = ShareOK
	}

	family := platform.FamilyFromUserAgent(cfg.UserAgent)
	p := &Platform{
		cfg:       cfg,
		refs:      refs,
		recorders: make(map[*recorder]struct{}),
		logger:    xglog.WithComponent("sim").With().Str(xglog.FieldFamily, string(family)).Logger(),
		caps: platform.Capabilities{
			Family:                 family,
			CanShareFiles:          cfg.ShareMode != ShareUnsupported,
			CanUseFileSystemAccess: cfg.FileSystemAccess,
			CanOpenWindow:          cfg.OpenWindow,
			CanDownload:            true,
		},
	}
	return p
}

func (p *Platform) Capabilities() platform.Capabilities { return p.caps }

// IsTypeSupported matches the configured list exactly, or by base type when
// the query carries no codec parameters.
func (p *Platform) IsTypeSupported(mimeType string) bool {
	base, _, hasParams := strings.Cut(mimeType, ";")
	for _, m := range p.cfg.MimeTypes {
		if strings.EqualFold(m, mimeType) {
			return true
		}
		if !hasParams {
			mb, _, _ := strings.Cut(m, ";")
			if strings.EqualFold(strings.TrimSpace(mb), strings.TrimSpace(base)) {
				return true
			}
		}
	}
	return false
}

func (p *Platform) CanShare(data platform.ShareData) bool {
	if p.cfg.ShareMode == ShareUnsupported {
		return false
	}
	return len(data.Files) > 0 || data.Text != ""
}

func (p *Platform) Share(ctx context.Context, data platform.ShareData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch p.cfg.ShareMode {
	case ShareCancel:
		return platform.NewMediaError(platform.NameAbort, "share canceled")
	case ShareFail:
		return platform.NewMediaError(platform.NameNotAllowed, "share target rejected the file")
	case ShareUnsupported:
		return platform.NewMediaError(platform.NameNotSupported, "share is not available")
	}
	for _, f := range data.Files {
		p.deliver(Delivery{Via: "share", Name: f.Name, MimeType: f.MimeType, Size: len(f.Data)})
	}
	p.logger.Info().Str("title", data.Title).Int("files", len(data.Files)).Msg("shared")
	return nil
}

func (p *Platform) CreateTemporaryReference(data []byte, mimeType string) (platform.Reference, error) {
	return p.refs.CreateTemporaryReference(data, mimeType)
}

func (p *Platform) RevokeTemporaryReference(ref platform.Reference) error {
	return p.refs.RevokeTemporaryReference(ref)
}

func (p *Platform) OpenReference(ctx context.Context, ref platform.Reference) error {
	if !p.cfg.OpenWindow {
		return platform.NewMediaError(platform.NameNotSupported, "popups are blocked")
	}
	if _, err := p.refs.Read(ctx, ref); err != nil {
		return fmt.Errorf("open %s: %w", ref, err)
	}
	p.mu.Lock()
	p.opened = append(p.opened, ref)
	p.mu.Unlock()
	p.logger.Info().Str(xglog.FieldRef, string(ref)).Msg("opened reference in new context")
	return nil
}

func (p *Platform) SaveFile(ctx context.Context, suggestedName, mimeType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.cfg.FileSystemAccess {
		return platform.NewMediaError(platform.NameNotSupported, "file system access is unavailable")
	}
	if p.cfg.CancelSave {
		return platform.NewMediaError(platform.NameAbort, "save picker dismissed")
	}
	path, err := p.write(suggestedName, data)
	if err != nil {
		return err
	}
	p.deliver(Delivery{Via: "save", Name: suggestedName, MimeType: mimeType, Size: len(data), Path: path})
	return nil
}

func (p *Platform) Download(ctx context.Context, ref platform.Reference, filename string) error {
	item, err := p.refs.Read(ctx, ref)
	if err != nil {
		return fmt.Errorf("download %s: %w", ref, err)
	}
	path, err := p.write(filename, item.Data)
	if err != nil {
		return err
	}
	p.deliver(Delivery{Via: "download", Name: filename, MimeType: item.MimeType, Size: len(item.Data), Path: path})
	return nil
}

// write stores data under DownloadDir atomically. It returns "" when no
// directory is configured.
func (p *Platform) write(name string, data []byte) (string, error) {
	if p.cfg.DownloadDir == "" {
		return "", nil
	}
	path := filepath.Join(p.cfg.DownloadDir, filepath.Base(name))
	if err := os.MkdirAll(p.cfg.DownloadDir, 0o750); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (p *Platform) deliver(d Delivery) {
	p.mu.Lock()
	p.deliveries = append(p.deliveries, d)
	p.mu.Unlock()
	p.logger.Info().
		Str("via", d.Via).
		Str(xglog.FieldFilename, d.Name).
		Str(xglog.FieldMimeType, d.MimeType).
		Int(xglog.FieldBytes, d.Size).
		Msg("file delivered")
}

// Deliveries returns every file that left the device, in order.
func (p *Platform) Deliveries() []Delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Delivery(nil), p.deliveries...)
}

// Opened returns references opened in a new browsing context.
func (p *Platform) Opened() []platform.Reference {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]platform.Reference(nil), p.opened...)
}

func (p *Platform) trackRecorder(r *recorder) {
	p.mu.Lock()
	p.recorders[r] = struct{}{}
	p.mu.Unlock()
}

func (p *Platform) untrackRecorder(r *recorder) {
	p.mu.Lock()
	delete(p.recorders, r)
	p.mu.Unlock()
}

// Close stops any running recorder, waits for its final flush and ends all
// live tracks.
func (p *Platform) Close() {
	p.mu.Lock()
	recs := make([]*recorder, 0, len(p.recorders))
	for r := range p.recorders {
		recs = append(recs, r)
	}
	p.mu.Unlock()

	for _, r := range recs {
		_ = r.Stop()
		r.wait()
	}
	p.endTracks()
}

var _ platform.Platform = (*Platform)(nil)
