// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package flow

import (
	"context"

	"github.com/ManuGH/leadcam/internal/media"
)

// SinkItem is what an external sink receives.
type SinkItem struct {
	Blob     *media.Blob
	Filename string
	Text     string
}

// Sink is an opaque destination such as a cloud drive or a notes app. Its
// internal mechanics are not part of the flow.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, item SinkItem) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, item SinkItem) error
}

func (s SinkFunc) Name() string { return s.SinkName }

func (s SinkFunc) Deliver(ctx context.Context, item SinkItem) error { return s.Fn(ctx, item) }
