// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Built-in values. They mirror the defaults of the packages they configure;
// cmd/leadcam checks that the two stay in step.
const (
	DefaultFacing           = "environment"
	DefaultWidth            = 1280
	DefaultHeight           = 720
	DefaultFrameRate        = 30
	DefaultPlaybackTTL      = 2 * time.Minute
	DefaultStopTimeout      = 10 * time.Second
	DefaultMaxBytes   int64 = 50 << 20
	DefaultCooldown         = 2 * time.Second
	DefaultFilenamePrefix   = "leadcam_video"
	DefaultSaveRefTTL       = 5 * time.Minute
	DefaultDownloadRefTTL   = 100 * time.Millisecond
	DefaultReclaimTTL       = 2 * time.Minute
	DefaultRefsMaxTTL       = 10 * time.Minute
	DefaultSimUserAgent     = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/126.0 Mobile Safari/537.36"
	DefaultSimTimeslice     = 100 * time.Millisecond
	DefaultSimChunkSize     = 4096
	DefaultSimShareMode     = "ok"
)

// DefaultCodecs is the capture codec preference order.
func DefaultCodecs() []string {
	return []string{
		"video/webm;codecs=vp9,opus",
		"video/webm;codecs=vp8,opus",
		"video/webm",
		"video/mp4",
	}
}

// DefaultSimMimeTypes lists the container types the simulated recorder
// accepts.
func DefaultSimMimeTypes() []string {
	return []string{"video/webm;codecs=vp9,opus", "video/webm;codecs=vp8,opus", "video/webm"}
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		LogLevel: "info",
		Language: "en",
		Capture: CaptureConfig{
			Facing:    DefaultFacing,
			Width:     DefaultWidth,
			Height:    DefaultHeight,
			FrameRate: DefaultFrameRate,
			Codecs:    DefaultCodecs(),
		},
		Recording: RecordingConfig{
			PlaybackTTL: DefaultPlaybackTTL,
			StopTimeout: DefaultStopTimeout,
		},
		Export: ExportConfig{
			MaxBytes:         DefaultMaxBytes,
			Cooldown:         DefaultCooldown,
			FilenamePrefix:   DefaultFilenamePrefix,
			BreakerThreshold: 3,
			BreakerReset:     time.Minute,
			SaveRefTTL:       DefaultSaveRefTTL,
			DownloadRefTTL:   DefaultDownloadRefTTL,
		},
		Reclaim: ReclaimConfig{
			DefaultTTL: DefaultReclaimTTL,
		},
		Refs: RefsConfig{
			ListenAddr:      "127.0.0.1:8089",
			RateLimit:       120,
			RateWindow:      time.Minute,
			MaxTTL:          DefaultRefsMaxTTL,
			Backend:         BackendMemory,
			CleanupInterval: 30 * time.Second,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "leadcam:ref:",
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "leadcam",
			Environment:  "development",
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		Sim: SimConfig{
			UserAgent: DefaultSimUserAgent,
			MimeTypes: DefaultSimMimeTypes(),
			Timeslice: DefaultSimTimeslice,
			ChunkSize: DefaultSimChunkSize,
			ShareMode: DefaultSimShareMode,
		},
	}
}

// Reference store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)
