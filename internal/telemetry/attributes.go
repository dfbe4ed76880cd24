// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by capture and export spans.
const (
	CaptureFacingKey   = "capture.facing"
	CaptureProfileKey  = "capture.profile"
	CaptureAttemptsKey = "capture.attempts"

	MediaMimeTypeKey = "media.mime_type"
	MediaBytesKey    = "media.bytes"

	ExportStrategyKey = "export.strategy"
	ExportOutcomeKey  = "export.outcome"
	ExportFilenameKey = "export.filename"

	ErrorTypeKey = "error.type"
)

// MediaAttributes describes a finished recording.
func MediaAttributes(mimeType string, size int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(MediaMimeTypeKey, mimeType),
		attribute.Int64(MediaBytesKey, size),
	}
}

// RecordError marks the span as failed with a classified error type.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errType != "" {
		span.SetAttributes(attribute.String(ErrorTypeKey, errType))
	}
}
