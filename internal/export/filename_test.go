// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"video/mp4":                  "mp4",
		"video/mp4;codecs=avc1":      "mp4",
		"video/webm;codecs=vp9,opus": "webm",
		"VIDEO/WEBM":                 "webm",
		"text/plain; charset=utf-8":  "txt",
		"":                           "webm",
		"application/octet-stream":   "webm",
	}
	for mime, want := range tests {
		assert.Equal(t, want, Extension(mime), mime)
	}
}

func TestFilename(t *testing.T) {
	now := time.UnixMilli(1_712_345_678_901)
	assert.Equal(t, "leadcam_video_1712345678901.webm", Filename("leadcam_video", "video/webm", now))
	assert.Equal(t, "x_1712345678901.mp4", Filename("x", "video/mp4", now))
	assert.Equal(t, "lead-1712345678901.txt", LeadFilename(now))
}
