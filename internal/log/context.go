// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	takeIDKey
	exportIDKey
)

// correlation lists the context keys copied onto loggers, in output order.
var correlation = [...]struct {
	key   ctxKey
	field string
}{
	{sessionIDKey, FieldSessionID},
	{takeIDKey, FieldTakeID},
	{exportIDKey, FieldExportID},
}

func withID(ctx context.Context, key ctxKey, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithSessionID tags ctx with the recording session.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return withID(ctx, sessionIDKey, id)
}

// ContextWithTakeID tags ctx with one take of a session.
func ContextWithTakeID(ctx context.Context, id string) context.Context {
	return withID(ctx, takeIDKey, id)
}

// ContextWithExportID tags ctx with an export request.
func ContextWithExportID(ctx context.Context, id string) context.Context {
	return withID(ctx, exportIDKey, id)
}

func SessionIDFromContext(ctx context.Context) string { return idFrom(ctx, sessionIDKey) }

func TakeIDFromContext(ctx context.Context) string { return idFrom(ctx, takeIDKey) }

func ExportIDFromContext(ctx context.Context) string { return idFrom(ctx, exportIDKey) }

// WithContext adds every correlation ID found in ctx to logger.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	var lc *zerolog.Context
	for _, c := range correlation {
		id := idFrom(ctx, c.key)
		if id == "" {
			continue
		}
		if lc == nil {
			w := logger.With()
			lc = &w
		}
		*lc = lc.Str(c.field, id)
	}
	if lc == nil {
		return logger
	}
	return lc.Logger()
}

// WithComponentFromContext is WithComponent plus the correlation IDs in ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
