// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ManuGH/leadcam/internal/cache"
	"github.com/ManuGH/leadcam/internal/capture"
	"github.com/ManuGH/leadcam/internal/config"
	"github.com/ManuGH/leadcam/internal/export"
	"github.com/ManuGH/leadcam/internal/flow"
	"github.com/ManuGH/leadcam/internal/health"
	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/platform/sim"
	"github.com/ManuGH/leadcam/internal/reclaim"
	"github.com/ManuGH/leadcam/internal/refserver"
	"github.com/ManuGH/leadcam/internal/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// run loads configuration, starts the reference server, performs one take
// and export, and then either returns or serves until ctx is done.
func run(ctx context.Context, opts options, stdout io.Writer) error {
	loader := config.NewLoader(opts.configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "leadcam", Version: cfg.Version})
	logger := xglog.WithComponent("main")

	source := "env+defaults"
	if opts.configPath != "" {
		source = "file"
	}
	logger.Info().Str(xglog.FieldEvent, "config.loaded").Str("source", source).Str("path", opts.configPath).Msg("loaded configuration")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("start telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	blobs, err := openCache(ctx, cfg.Refs, logger)
	if err != nil {
		return err
	}
	defer func() { _ = blobs.Close() }()

	serviceName := ""
	if cfg.Telemetry.Enabled {
		serviceName = cfg.Telemetry.ServiceName
	}
	checks := health.NewManager(cfg.Version)
	if p, ok := blobs.(health.Pinger); ok {
		checks.Register(health.NewPingChecker("refs_cache", p))
	}
	checks.Register(health.NewDirChecker("download_dir", cfg.Sim.DownloadDir))

	srv := refserver.New(refserver.Config{
		ListenAddr:  cfg.Refs.ListenAddr,
		RateLimit:   cfg.Refs.RateLimit,
		RateWindow:  cfg.Refs.RateWindow,
		ServiceName: serviceName,
		Health:      checks,
	}, blobs)
	store := refserver.NewStore(blobs, cfg.Refs.BaseURL, cfg.Refs.MaxTTL)

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	g, gctx := errgroup.WithContext(srvCtx)

	ready := make(chan string, 1)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, func(addr string) { ready <- addr })
	})

	select {
	case addr := <-ready:
		if cfg.Refs.BaseURL == "" {
			store.SetBaseURL("http://" + addr)
		}
	case <-gctx.Done():
		return g.Wait()
	}

	var holder *config.Holder
	if opts.serve && opts.configPath != "" {
		holder = config.NewHolder(cfg, loader, opts.configPath)
		if err := holder.StartWatcher(gctx); err != nil {
			logger.Warn().Err(err).Msg("config watcher unavailable")
			holder = nil
		} else {
			defer holder.Stop()
			updates := make(chan config.AppConfig, 1)
			holder.RegisterListener(updates)
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case next := <-updates:
						xglog.Configure(xglog.Config{Level: next.LogLevel, Service: "leadcam", Version: next.Version})
					}
				}
			})
		}
	}

	takeErr := take(gctx, cfg, opts, store, stdout)

	if opts.serve && takeErr == nil {
		logger.Info().Str(xglog.FieldEvent, "leadcam.serving").Msg("serving references until interrupted")
		<-ctx.Done()
	}
	stopServer()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Join(takeErr, fmt.Errorf("reference server: %w", err))
	}
	return takeErr
}

func openCache(ctx context.Context, refs config.RefsConfig, logger zerolog.Logger) (cache.BlobCache, error) {
	switch refs.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      refs.Redis.Addr,
			Password:  refs.Redis.Password,
			DB:        refs.Redis.DB,
			KeyPrefix: refs.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(refs.CleanupInterval), nil
	}
}

func simConfig(c config.SimConfig) sim.Config {
	mode, _ := sim.ParseShareMode(c.ShareMode)
	return sim.Config{
		UserAgent:        c.UserAgent,
		MimeTypes:        c.MimeTypes,
		DenyPermission:   c.DenyPermission,
		FailProfiles:     c.FailProfiles,
		Timeslice:        c.Timeslice,
		ChunkSize:        c.ChunkSize,
		FailAfterChunks:  c.FailAfterChunks,
		ShareMode:        mode,
		FileSystemAccess: c.FileSystemAccess,
		CancelSave:       c.CancelSave,
		OpenWindow:       c.OpenWindow,
		DownloadDir:      c.DownloadDir,
	}
}

// take records and exports one clip on the simulated device.
func take(ctx context.Context, cfg config.AppConfig, opts options, store *refserver.Store, stdout io.Writer) error {
	logger := xglog.WithComponent("main")
	p := sim.New(simConfig(cfg.Sim), store)
	defer p.Close()

	family := p.Capabilities().Family
	if cfg.Export.Family != "" {
		family = platform.ParseFamily(cfg.Export.Family)
	}
	lang := export.ParseLanguage(cfg.Language)

	rc := reclaim.New(reclaim.WithDefaultTTL(cfg.Reclaim.DefaultTTL))
	defer func() { _ = rc.ReleaseAll() }()

	notifier := export.NotifierFunc(func(_ context.Context, msg string) {
		_, _ = fmt.Fprintln(stdout, msg)
	})
	exportOpts := []export.Option{
		export.WithMaxBytes(cfg.Export.MaxBytes),
		export.WithCooldown(cfg.Export.Cooldown),
		export.WithFilenamePrefix(cfg.Export.FilenamePrefix),
		export.WithFamily(family),
		export.WithLanguage(lang),
		export.WithBreaker(cfg.Export.BreakerThreshold, cfg.Export.BreakerReset),
	}
	strategies := export.DefaultStrategies(p, rc, notifier, lang, cfg.Export.SaveRefTTL, cfg.Export.DownloadRefTTL)
	coord := export.NewCoordinator(strategies, exportOpts...)
	leads := export.NewCoordinator(strategies, exportOpts...)

	ladder := capture.DefaultLadder(capture.LadderOptions{
		Width:     cfg.Capture.Width,
		Height:    cfg.Capture.Height,
		FrameRate: cfg.Capture.FrameRate,
	})
	notes := flow.SinkFunc{SinkName: "notes", Fn: func(_ context.Context, item flow.SinkItem) error {
		logger.Info().Str(xglog.FieldFilename, item.Filename).Str("text", item.Text).Msg("lead note")
		return nil
	}}
	f := flow.New(p, coord, rc,
		flow.WithFacing(platform.FacingMode(cfg.Capture.Facing)),
		flow.WithNegotiatorOptions(capture.WithLadder(ladder), capture.WithCodecPreferences(cfg.Capture.Codecs)),
		flow.WithLanguage(lang),
		flow.WithPlaybackTTL(cfg.Recording.PlaybackTTL),
		flow.WithSinks(notes),
		flow.WithLeadCoordinator(leads),
		flow.WithIndicator(func(on bool) {
			logger.Debug().Bool("recording", on).Msg("recording indicator")
		}),
	)
	defer func() { _ = f.Reset() }()

	f.SetForm(export.Form{ParentName: opts.parent, ChildName: opts.child, Age: opts.age})
	if opts.address != "" {
		f.SetLocation(&export.Location{Address: opts.address})
	}

	if err := f.Begin(); err != nil {
		return err
	}
	if err := f.SelectImage("sim://sample-image"); err != nil {
		return err
	}
	if err := f.StartPreview(ctx); err != nil {
		_, _ = fmt.Fprintln(stdout, capture.Guidance(err, family))
		return fmt.Errorf("start preview: %w", err)
	}
	if err := f.StartRecording(ctx); err != nil {
		_, _ = fmt.Fprintln(stdout, capture.Guidance(err, family))
		return fmt.Errorf("start recording: %w", err)
	}

	select {
	case <-time.After(opts.duration):
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Recording.StopTimeout)
	defer cancel()
	blob, err := f.StopRecording(stopCtx)
	if err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "recorded %d bytes (%s), playback at %s\n", blob.Size(), blob.MimeType(), f.Playback())

	res, err := f.Save(ctx)
	if res != nil {
		printResult(stdout, res)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := f.SendToSinks(ctx); err != nil {
		logger.Warn().Err(err).Msg("sink delivery")
	}

	if opts.lead {
		lead, err := f.SaveLead(ctx)
		if lead != nil {
			printResult(stdout, lead)
		}
		if err != nil && !errors.Is(err, export.ErrCoolingDown) {
			return fmt.Errorf("export lead: %w", err)
		}
		if errors.Is(err, export.ErrCoolingDown) {
			_, _ = fmt.Fprintln(stdout, "lead export skipped: cooling down")
		}
	}
	return nil
}

func printResult(w io.Writer, res *export.Result) {
	_, _ = fmt.Fprintf(w, "export %s: %s", res.ExportID, res.Outcome)
	if res.Strategy != "" {
		_, _ = fmt.Fprintf(w, " via %s", res.Strategy)
	}
	if res.Filename != "" {
		_, _ = fmt.Fprintf(w, " (%s)", res.Filename)
	}
	_, _ = fmt.Fprintln(w)
	for _, a := range res.Attempts {
		line := fmt.Sprintf("  %-16s %s", a.Strategy, a.Outcome)
		if a.Err != nil {
			line += ": " + a.Err.Error()
		}
		_, _ = fmt.Fprintln(w, line)
	}
	if res.Instructions != "" {
		_, _ = fmt.Fprintln(w, res.Instructions)
	}
}
