// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the complete leadcam configuration.
type AppConfig struct {
	Version  string `yaml:"-"`
	LogLevel string `yaml:"logLevel"`
	// Language is an Accept-Language style preference for user-facing text.
	Language string `yaml:"language"`

	Capture   CaptureConfig   `yaml:"capture"`
	Recording RecordingConfig `yaml:"recording"`
	Export    ExportConfig    `yaml:"export"`
	Reclaim   ReclaimConfig   `yaml:"reclaim"`
	Refs      RefsConfig      `yaml:"refs"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Sim       SimConfig       `yaml:"sim"`
}

// CaptureConfig tunes device negotiation.
type CaptureConfig struct {
	Facing    string   `yaml:"facing"`
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	FrameRate int      `yaml:"frameRate"`
	Codecs    []string `yaml:"codecs"`
}

// RecordingConfig tunes the recording session.
type RecordingConfig struct {
	// PlaybackTTL bounds the lifetime of the playback reference of a take.
	PlaybackTTL time.Duration `yaml:"playbackTTL"`
	// StopTimeout bounds how long a stop waits for the final flush.
	StopTimeout time.Duration `yaml:"stopTimeout"`
}

// ExportConfig tunes the export coordinator.
type ExportConfig struct {
	MaxBytes       int64         `yaml:"maxBytes"`
	Cooldown       time.Duration `yaml:"cooldown"`
	FilenamePrefix string        `yaml:"filenamePrefix"`
	// Family overrides the detected platform family for instructions.
	Family           string        `yaml:"family"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
	SaveRefTTL       time.Duration `yaml:"saveRefTTL"`
	DownloadRefTTL   time.Duration `yaml:"downloadRefTTL"`
}

// ReclaimConfig tunes the resource reclaimer.
type ReclaimConfig struct {
	DefaultTTL time.Duration `yaml:"defaultTTL"`
}

// RefsConfig configures the temporary-reference store and its HTTP server.
type RefsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// BaseURL prefixes issued references. Empty derives it from the bound address.
	BaseURL         string        `yaml:"baseURL"`
	RateLimit       int           `yaml:"rateLimit"`
	RateWindow      time.Duration `yaml:"rateWindow"`
	MaxTTL          time.Duration `yaml:"maxTTL"`
	Backend         string        `yaml:"backend"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	Redis           RedisConfig   `yaml:"redis"`
}

// RedisConfig is used when Refs.Backend is "redis".
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	Environment  string  `yaml:"environment"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// SimConfig describes the simulated device used by the demo binary.
type SimConfig struct {
	UserAgent        string            `yaml:"userAgent"`
	MimeTypes        []string          `yaml:"mimeTypes"`
	DenyPermission   bool              `yaml:"denyPermission"`
	FailProfiles     map[string]string `yaml:"failProfiles"`
	Timeslice        time.Duration     `yaml:"timeslice"`
	ChunkSize        int               `yaml:"chunkSize"`
	FailAfterChunks  int               `yaml:"failAfterChunks"`
	ShareMode        string            `yaml:"shareMode"`
	FileSystemAccess bool              `yaml:"fileSystemAccess"`
	CancelSave       bool              `yaml:"cancelSave"`
	OpenWindow       bool              `yaml:"openWindow"`
	DownloadDir      string            `yaml:"downloadDir"`
}
