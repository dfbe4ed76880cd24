// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads leadcam configuration.
//
// Precedence, lowest to highest: built-in defaults, the YAML file (strict,
// unknown keys are rejected), LEADCAM_* environment variables. The merged
// result is validated before use. Holder keeps the active configuration and
// reloads it when the file changes.
package config
