// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

var (
	facings       = []string{"user", "environment"}
	families      = []string{"ios", "android", "desktop"}
	shareModes    = []string{"", "ok", "cancel", "fail", "unsupported"}
	profileLevels = []string{"ideal", "reduced", "facing-only", "minimal"}
)

func oneOf(set []string, s string) bool {
	return slices.Contains(set, strings.ToLower(strings.TrimSpace(s)))
}

// ValidationError reports one invalid field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

type validator struct {
	errs []error
}

func (v *validator) check(ok bool, field string, value any, msg string) {
	if !ok {
		v.errs = append(v.errs, &ValidationError{Field: field, Value: value, Message: msg})
	}
}

// Validate checks cfg and returns every problem found, joined.
func Validate(cfg AppConfig) error {
	v := &validator{}

	if cfg.LogLevel != "" {
		_, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
		v.check(err == nil, "logLevel", cfg.LogLevel, "unknown log level")
	}

	v.check(slices.Contains(facings, cfg.Capture.Facing), "capture.facing", cfg.Capture.Facing, `must be "user" or "environment"`)
	v.check(cfg.Capture.Width > 0 && cfg.Capture.Height > 0, "capture.width/height", fmt.Sprintf("%dx%d", cfg.Capture.Width, cfg.Capture.Height), "must be positive")
	v.check(cfg.Capture.FrameRate > 0 && cfg.Capture.FrameRate <= 120, "capture.frameRate", cfg.Capture.FrameRate, "must be between 1 and 120")
	v.check(len(cfg.Capture.Codecs) > 0, "capture.codecs", cfg.Capture.Codecs, "at least one codec preference is required")

	v.check(cfg.Recording.PlaybackTTL > 0, "recording.playbackTTL", cfg.Recording.PlaybackTTL, "must be positive")
	v.check(cfg.Recording.StopTimeout > 0, "recording.stopTimeout", cfg.Recording.StopTimeout, "must be positive")

	v.check(cfg.Export.MaxBytes > 0, "export.maxBytes", cfg.Export.MaxBytes, "must be positive")
	v.check(cfg.Export.Cooldown >= 0, "export.cooldown", cfg.Export.Cooldown, "must not be negative")
	v.check(cfg.Export.FilenamePrefix != "" && !strings.ContainsAny(cfg.Export.FilenamePrefix, `/\`), "export.filenamePrefix", cfg.Export.FilenamePrefix, "must be a non-empty file name prefix")
	if cfg.Export.Family != "" {
		v.check(oneOf(families, cfg.Export.Family), "export.family", cfg.Export.Family, "must be ios, android or desktop")
	}
	v.check(cfg.Export.BreakerThreshold >= 0, "export.breakerThreshold", cfg.Export.BreakerThreshold, "must not be negative")
	if cfg.Export.BreakerThreshold > 0 {
		v.check(cfg.Export.BreakerReset > 0, "export.breakerReset", cfg.Export.BreakerReset, "must be positive when the breaker is enabled")
	}
	v.check(cfg.Export.SaveRefTTL > 0, "export.saveRefTTL", cfg.Export.SaveRefTTL, "must be positive")
	v.check(cfg.Export.DownloadRefTTL > 0, "export.downloadRefTTL", cfg.Export.DownloadRefTTL, "must be positive")

	v.check(cfg.Reclaim.DefaultTTL > 0, "reclaim.defaultTTL", cfg.Reclaim.DefaultTTL, "must be positive")

	validateRefs(v, cfg.Refs)

	if cfg.Telemetry.Enabled {
		v.check(cfg.Telemetry.Exporter == "grpc" || cfg.Telemetry.Exporter == "http", "telemetry.exporter", cfg.Telemetry.Exporter, `must be "grpc" or "http"`)
		v.check(cfg.Telemetry.Endpoint != "", "telemetry.endpoint", cfg.Telemetry.Endpoint, "required when telemetry is enabled")
	}
	v.check(cfg.Telemetry.SamplingRate >= 0 && cfg.Telemetry.SamplingRate <= 1, "telemetry.samplingRate", cfg.Telemetry.SamplingRate, "must be between 0 and 1")

	v.check(oneOf(shareModes, cfg.Sim.ShareMode), "sim.shareMode", cfg.Sim.ShareMode, "must be ok, cancel, fail or unsupported")
	v.check(cfg.Sim.Timeslice > 0, "sim.timeslice", cfg.Sim.Timeslice, "must be positive")
	v.check(cfg.Sim.ChunkSize > 0, "sim.chunkSize", cfg.Sim.ChunkSize, "must be positive")
	for level := range cfg.Sim.FailProfiles {
		v.check(slices.Contains(profileLevels, level), "sim.failProfiles", level, "unknown constraint level")
	}

	return errors.Join(v.errs...)
}

func validateRefs(v *validator, r RefsConfig) {
	if _, _, err := net.SplitHostPort(r.ListenAddr); err != nil {
		v.check(false, "refs.listenAddr", r.ListenAddr, "must be host:port")
	}
	if r.BaseURL != "" {
		u, err := url.Parse(r.BaseURL)
		v.check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "", "refs.baseURL", r.BaseURL, "must be an absolute http(s) URL")
	}
	v.check(r.RateLimit >= 0, "refs.rateLimit", r.RateLimit, "must not be negative")
	if r.RateLimit > 0 {
		v.check(r.RateWindow > 0, "refs.rateWindow", r.RateWindow, "must be positive when rate limiting is enabled")
	}
	v.check(r.MaxTTL > 0, "refs.maxTTL", r.MaxTTL, "must be positive")

	switch r.Backend {
	case BackendMemory:
		v.check(r.CleanupInterval >= 0, "refs.cleanupInterval", r.CleanupInterval, "must not be negative")
	case BackendRedis:
		v.check(r.Redis.Addr != "", "refs.redis.addr", r.Redis.Addr, "required for the redis backend")
		v.check(r.Redis.DB >= 0, "refs.redis.db", r.Redis.DB, "must not be negative")
	default:
		v.check(false, "refs.backend", r.Backend, `must be "memory" or "redis"`)
	}
}
