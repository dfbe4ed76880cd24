// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-config", " cfg.yaml ", "-duration", "250ms", "-serve", "-child", "Mark"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "cfg.yaml", o.configPath)
	assert.Equal(t, 250*time.Millisecond, o.duration)
	assert.True(t, o.serve)
	assert.Equal(t, "Mark", o.child)

	_, err = parseFlags([]string{"-duration", "0s"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-bogus"}, io.Discard)
	assert.Error(t, err)
}

func writeTestConfig(t *testing.T, downloads, shareMode string) string {
	t.Helper()
	body := `
logLevel: warn
refs:
  listenAddr: 127.0.0.1:0
export:
  cooldown: 0s
sim:
  userAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"
  shareMode: ` + shareMode + `
  timeslice: 5ms
  chunkSize: 8
  downloadDir: ` + downloads + `
`
	path := filepath.Join(t.TempDir(), "leadcam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_RecordsAndDownloads(t *testing.T) {
	downloads := t.TempDir()
	opts := options{
		configPath: writeTestConfig(t, downloads, "unsupported"),
		duration:   30 * time.Millisecond,
		lead:       true,
		parent:     "Anna",
		child:      "Mark",
		age:        "7",
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))

	text := out.String()
	assert.Contains(t, text, "via forced_download")
	assert.Contains(t, text, "native_share")

	entries, err := os.ReadDir(downloads)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 2, "video and lead summary")

	var lead string
	for _, n := range names {
		if strings.HasPrefix(n, "lead-") {
			lead = n
		}
	}
	require.NotEmpty(t, lead)
	data, err := os.ReadFile(filepath.Join(downloads, lead))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mark")
}

func TestRun_ShareSucceeds(t *testing.T) {
	downloads := t.TempDir()
	opts := options{
		configPath: writeTestConfig(t, downloads, "ok"),
		duration:   20 * time.Millisecond,
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "via native_share")

	entries, err := os.ReadDir(downloads)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing downloaded when sharing works")
}

func TestRun_PermissionDenied(t *testing.T) {
	t.Setenv("LEADCAM_SIM_DENY_PERMISSION", "true")
	opts := options{
		configPath: writeTestConfig(t, t.TempDir(), "ok"),
		duration:   10 * time.Millisecond,
	}

	var out bytes.Buffer
	err := run(context.Background(), opts, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start preview")
	assert.NotEmpty(t, strings.TrimSpace(out.String()), "user guidance printed")
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("LEADCAM_REFS_BACKEND", "floppy")
	err := run(context.Background(), options{duration: time.Millisecond}, io.Discard)
	assert.ErrorContains(t, err, "load config")
}
