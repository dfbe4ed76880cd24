// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEADCAM_"

// listSep separates list values in environment variables. MIME types contain
// commas, so a pipe is used.
const listSep = "|"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) key(name string) string {
	k := EnvPrefix + name
	l.ConsumedEnvKeys[k] = struct{}{}
	return k
}

func (l *Loader) envString(name, def string) string { return ParseString(l.key(name), def) }
func (l *Loader) envBool(name string, def bool) bool { return ParseBool(l.key(name), def) }
func (l *Loader) envInt(name string, def int) int    { return ParseInt(l.key(name), def) }
func (l *Loader) envInt64(name string, def int64) int64 {
	return ParseInt64(l.key(name), def)
}
func (l *Loader) envFloat(name string, def float64) float64 {
	return ParseFloat(l.key(name), def)
}
func (l *Loader) envDuration(name string, def time.Duration) time.Duration {
	return ParseDuration(l.key(name), def)
}
func (l *Loader) envList(name string, def []string) []string {
	return ParseList(l.key(name), listSep, def)
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	// 1. Set defaults
	cfg := Default()

	// 2. Load from file (if provided)
	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	// 3. Override with environment variables (highest priority)
	l.mergeEnvConfig(&cfg)

	cfg.Sim.DownloadDir = expandEnv(cfg.Sim.DownloadDir)
	if cfg.Sim.DownloadDir != "" {
		if abs, err := filepath.Abs(cfg.Sim.DownloadDir); err == nil {
			cfg.Sim.DownloadDir = abs
		}
	}
	cfg.Version = l.version

	// 4. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over dst with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, dst *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if isYAMLUnknownFieldError(err) {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func isYAMLUnknownFieldError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "field") && strings.Contains(msg, "not found")
}

// mergeEnvConfig applies LEADCAM_* overrides.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Language = l.envString("LANGUAGE", cfg.Language)

	cfg.Capture.Facing = l.envString("CAPTURE_FACING", cfg.Capture.Facing)
	cfg.Capture.Width = l.envInt("CAPTURE_WIDTH", cfg.Capture.Width)
	cfg.Capture.Height = l.envInt("CAPTURE_HEIGHT", cfg.Capture.Height)
	cfg.Capture.FrameRate = l.envInt("CAPTURE_FRAME_RATE", cfg.Capture.FrameRate)
	cfg.Capture.Codecs = l.envList("CAPTURE_CODECS", cfg.Capture.Codecs)

	cfg.Recording.PlaybackTTL = l.envDuration("RECORDING_PLAYBACK_TTL", cfg.Recording.PlaybackTTL)
	cfg.Recording.StopTimeout = l.envDuration("RECORDING_STOP_TIMEOUT", cfg.Recording.StopTimeout)

	cfg.Export.MaxBytes = l.envInt64("EXPORT_MAX_BYTES", cfg.Export.MaxBytes)
	cfg.Export.Cooldown = l.envDuration("EXPORT_COOLDOWN", cfg.Export.Cooldown)
	cfg.Export.FilenamePrefix = l.envString("EXPORT_FILENAME_PREFIX", cfg.Export.FilenamePrefix)
	cfg.Export.Family = l.envString("EXPORT_FAMILY", cfg.Export.Family)
	cfg.Export.BreakerThreshold = l.envInt("EXPORT_BREAKER_THRESHOLD", cfg.Export.BreakerThreshold)
	cfg.Export.BreakerReset = l.envDuration("EXPORT_BREAKER_RESET", cfg.Export.BreakerReset)
	cfg.Export.SaveRefTTL = l.envDuration("EXPORT_SAVE_REF_TTL", cfg.Export.SaveRefTTL)
	cfg.Export.DownloadRefTTL = l.envDuration("EXPORT_DOWNLOAD_REF_TTL", cfg.Export.DownloadRefTTL)

	cfg.Reclaim.DefaultTTL = l.envDuration("RECLAIM_DEFAULT_TTL", cfg.Reclaim.DefaultTTL)

	cfg.Refs.ListenAddr = l.envString("REFS_LISTEN_ADDR", cfg.Refs.ListenAddr)
	cfg.Refs.BaseURL = l.envString("REFS_BASE_URL", cfg.Refs.BaseURL)
	cfg.Refs.RateLimit = l.envInt("REFS_RATE_LIMIT", cfg.Refs.RateLimit)
	cfg.Refs.RateWindow = l.envDuration("REFS_RATE_WINDOW", cfg.Refs.RateWindow)
	cfg.Refs.MaxTTL = l.envDuration("REFS_MAX_TTL", cfg.Refs.MaxTTL)
	cfg.Refs.Backend = l.envString("REFS_BACKEND", cfg.Refs.Backend)
	cfg.Refs.CleanupInterval = l.envDuration("REFS_CLEANUP_INTERVAL", cfg.Refs.CleanupInterval)
	cfg.Refs.Redis.Addr = l.envString("REFS_REDIS_ADDR", cfg.Refs.Redis.Addr)
	cfg.Refs.Redis.Password = l.envString("REFS_REDIS_PASSWORD", cfg.Refs.Redis.Password)
	cfg.Refs.Redis.DB = l.envInt("REFS_REDIS_DB", cfg.Refs.Redis.DB)
	cfg.Refs.Redis.KeyPrefix = l.envString("REFS_REDIS_KEY_PREFIX", cfg.Refs.Redis.KeyPrefix)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ServiceName = l.envString("TELEMETRY_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.Environment = l.envString("TELEMETRY_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.Exporter = l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	cfg.Sim.UserAgent = l.envString("SIM_USER_AGENT", cfg.Sim.UserAgent)
	cfg.Sim.MimeTypes = l.envList("SIM_MIME_TYPES", cfg.Sim.MimeTypes)
	cfg.Sim.DenyPermission = l.envBool("SIM_DENY_PERMISSION", cfg.Sim.DenyPermission)
	cfg.Sim.Timeslice = l.envDuration("SIM_TIMESLICE", cfg.Sim.Timeslice)
	cfg.Sim.ChunkSize = l.envInt("SIM_CHUNK_SIZE", cfg.Sim.ChunkSize)
	cfg.Sim.FailAfterChunks = l.envInt("SIM_FAIL_AFTER_CHUNKS", cfg.Sim.FailAfterChunks)
	cfg.Sim.ShareMode = l.envString("SIM_SHARE_MODE", cfg.Sim.ShareMode)
	cfg.Sim.FileSystemAccess = l.envBool("SIM_FILE_SYSTEM_ACCESS", cfg.Sim.FileSystemAccess)
	cfg.Sim.CancelSave = l.envBool("SIM_CANCEL_SAVE", cfg.Sim.CancelSave)
	cfg.Sim.OpenWindow = l.envBool("SIM_OPEN_WINDOW", cfg.Sim.OpenWindow)
	cfg.Sim.DownloadDir = l.envString("SIM_DOWNLOAD_DIR", cfg.Sim.DownloadDir)
}
