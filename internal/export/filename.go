// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/leadcam/internal/media"
)

// DefaultExtension is used when the MIME type is empty or unrecognised.
const DefaultExtension = "webm"

// Extension derives the file extension from a MIME type.
func Extension(mimeType string) string {
	base := media.BaseType(mimeType)
	switch {
	case strings.Contains(base, "mp4"):
		return "mp4"
	case strings.Contains(base, "webm"):
		return "webm"
	case base == "text/plain":
		return "txt"
	default:
		return DefaultExtension
	}
}

// Filename returns "<prefix>_<unix-ms>.<ext>".
func Filename(prefix, mimeType string, now time.Time) string {
	return fmt.Sprintf("%s_%d.%s", prefix, now.UnixMilli(), Extension(mimeType))
}

// LeadMimeType tags exported lead summaries.
const LeadMimeType = "text/plain;charset=utf-8"

// LeadFilename names a lead summary text file.
func LeadFilename(now time.Time) string {
	return fmt.Sprintf("lead-%d.txt", now.UnixMilli())
}
