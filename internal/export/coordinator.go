// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/ManuGH/leadcam/internal/metrics"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/ManuGH/leadcam/internal/ratelimit"
	"github.com/ManuGH/leadcam/internal/resilience"
	"github.com/ManuGH/leadcam/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

// Defaults for the coordinator guards.
const (
	DefaultMaxBytes       int64 = 50 << 20
	DefaultCooldown             = 2 * time.Second
	DefaultFilenamePrefix       = "leadcam_video"
)

// Coordinator tries strategies in order until one succeeds or the user
// cancels. Strategy failures never reach the caller unless every strategy
// fails.
type Coordinator struct {
	strategies []Strategy
	breakers   map[StrategyName]*resilience.CircuitBreaker
	gate       *ratelimit.Gate
	maxBytes   int64
	prefix     string
	family     platform.Family
	lang       language.Tag
	now        func() time.Time
	logger     zerolog.Logger
	tracer     trace.Tracer

	breakerThreshold int
	breakerReset     time.Duration
	cooldown         time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxBytes sets the size ceiling.
func WithMaxBytes(n int64) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithCooldown sets the minimum interval between export invocations.
func WithCooldown(d time.Duration) Option {
	return func(c *Coordinator) { c.cooldown = d }
}

// WithFilenamePrefix sets the "<prefix>" of generated filenames.
func WithFilenamePrefix(p string) Option {
	return func(c *Coordinator) {
		if p != "" {
			c.prefix = p
		}
	}
}

// WithFamily selects the manual instruction variant.
func WithFamily(f platform.Family) Option {
	return func(c *Coordinator) { c.family = f }
}

// WithLanguage selects the text and instruction language.
func WithLanguage(tag language.Tag) Option {
	return func(c *Coordinator) { c.lang = tag }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithBreaker configures the per-strategy circuit breakers. A threshold of
// zero disables them.
func WithBreaker(threshold int, reset time.Duration) Option {
	return func(c *Coordinator) {
		c.breakerThreshold = threshold
		c.breakerReset = reset
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator for strategies in priority order.
func NewCoordinator(strategies []Strategy, opts ...Option) *Coordinator {
	c := &Coordinator{
		strategies:       strategies,
		maxBytes:         DefaultMaxBytes,
		prefix:           DefaultFilenamePrefix,
		family:           platform.FamilyUnknown,
		lang:             language.English,
		now:              time.Now,
		logger:           xglog.WithComponent("export"),
		tracer:           telemetry.Tracer("leadcam/export"),
		breakerThreshold: 3,
		breakerReset:     time.Minute,
		cooldown:         DefaultCooldown,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.gate = ratelimit.NewGate("export", c.cooldown, c.now)
	if c.breakerThreshold > 0 {
		c.breakers = make(map[StrategyName]*resilience.CircuitBreaker, len(strategies))
		for _, s := range strategies {
			name := "export." + string(s.Name())
			c.breakers[s.Name()] = resilience.NewCircuitBreaker(name, c.breakerThreshold, c.breakerReset,
				resilience.WithClock(clockFunc(c.now)))
		}
	}
	return c
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// Export delivers req.Blob. The size guard runs before the rate gate, so an
// oversized request neither starts a cool-down nor reaches a strategy.
// A user cancellation is a clean terminal result with a nil error.
func (c *Coordinator) Export(ctx context.Context, req Request) (*Result, error) {
	if req.Blob == nil || req.Blob.Size() == 0 {
		metrics.RecordExportRejection("empty")
		return nil, ErrNothingToExport
	}
	if size := req.Blob.Size(); size > c.maxBytes {
		metrics.RecordExportRejection("too_large")
		metrics.RecordExportResult(string(OutcomeTooLarge))
		c.logger.Warn().
			Str(xglog.FieldEvent, "export.too_large").
			Int64(xglog.FieldBytes, size).
			Int64("limit", c.maxBytes).
			Msg("export rejected by size guard")
		return &Result{Outcome: OutcomeTooLarge}, &SizeError{Size: size, Limit: c.maxBytes}
	}

	if err := c.gate.TryEnter(); err != nil {
		reason := "cooldown"
		if errors.Is(err, ratelimit.ErrInFlight) {
			reason = "in_flight"
		}
		metrics.RecordExportRejection(reason)
		c.logger.Debug().Err(err).Str(xglog.FieldEvent, "export.rate_limited").Msg("export rejected")
		return nil, err
	}
	defer c.gate.Leave()

	id := uuid.NewString()
	ctx = xglog.ContextWithExportID(ctx, id)
	logger := xglog.WithContext(ctx, c.logger)

	payload := c.payload(req)
	ctx, span := c.tracer.Start(ctx, "export",
		trace.WithAttributes(telemetry.MediaAttributes(payload.MimeType, req.Blob.Size())...),
		trace.WithAttributes(attribute.String(telemetry.ExportFilenameKey, payload.Filename)))
	defer span.End()

	res := &Result{ExportID: id, Filename: payload.Filename}
	var errs []error

	for _, s := range c.strategies {
		a := c.attempt(ctx, s, payload)
		res.Attempts = append(res.Attempts, a)
		metrics.RecordExportAttempt(string(a.Strategy), string(a.Outcome))

		ev := logger.Debug()
		if a.Outcome == OutcomeFailed {
			ev = logger.Warn()
		}
		ev.Err(a.Err).
			Str(xglog.FieldEvent, "export.attempt").
			Str(xglog.FieldStrategy, string(a.Strategy)).
			Str(xglog.FieldOutcome, string(a.Outcome)).
			Dur("duration", a.Duration).
			Msg("export strategy attempted")

		if a.Outcome == OutcomeSucceeded || a.Outcome == OutcomeUserCancelled {
			res.Outcome = a.Outcome
			res.Strategy = a.Strategy
			span.SetAttributes(
				attribute.String(telemetry.ExportStrategyKey, string(a.Strategy)),
				attribute.String(telemetry.ExportOutcomeKey, string(a.Outcome)),
			)
			metrics.RecordExportResult(string(a.Outcome))
			logger.Info().
				Str(xglog.FieldEvent, "export.done").
				Str(xglog.FieldStrategy, string(a.Strategy)).
				Str(xglog.FieldOutcome, string(a.Outcome)).
				Str(xglog.FieldFilename, payload.Filename).
				Msg("export finished")
			return res, nil
		}
		if a.Err != nil {
			errs = append(errs, &AttemptError{Strategy: a.Strategy, Outcome: a.Outcome, Err: a.Err})
		}
	}

	res.Outcome = OutcomeAllFailed
	res.Instructions = Instructions(c.family, c.lang, payload.Filename, payload.MimeType)
	metrics.RecordExportResult(string(OutcomeAllFailed))
	err := ErrAllStrategiesFailed
	if joined := errors.Join(errs...); joined != nil {
		err = fmt.Errorf("%w: %w", ErrAllStrategiesFailed, joined)
	}
	telemetry.RecordError(span, err, string(OutcomeAllFailed))
	logger.Error().
		Err(err).
		Str(xglog.FieldEvent, "export.all_failed").
		Str(xglog.FieldFamily, string(c.family)).
		Msg("every export strategy failed, showing manual instructions")
	return res, err
}

func (c *Coordinator) payload(req Request) Payload {
	name := req.Filename
	if name == "" {
		name = Filename(c.prefix, req.Blob.MimeType(), c.now())
	}
	return Payload{
		Filename: name,
		MimeType: req.Blob.MimeType(),
		Data:     req.Blob.Bytes(),
		Title:    ShareTitle(req.Metadata, c.lang),
		Text:     ShareText(req.Metadata, c.lang),
	}
}

// attempt runs one strategy, converting panics and unknown outcomes into
// Failed so the next strategy still runs.
func (c *Coordinator) attempt(ctx context.Context, s Strategy, p Payload) (a Attempt) {
	a.Strategy = s.Name()
	cb := c.breakers[s.Name()]
	if cb != nil && !cb.Allow() {
		a.Outcome = OutcomeFailed
		a.Err = resilience.ErrCircuitOpen
		return a
	}

	ctx, span := c.tracer.Start(ctx, "export.attempt",
		trace.WithAttributes(attribute.String(telemetry.ExportStrategyKey, string(a.Strategy))))
	start := c.now()
	defer func() {
		if r := recover(); r != nil {
			a.Outcome = OutcomeFailed
			a.Err = fmt.Errorf("strategy panicked: %v", r)
		}
		a.Duration = c.now().Sub(start)
		switch a.Outcome {
		case OutcomeSucceeded, OutcomeUserCancelled, OutcomeUnsupported:
		default:
			if a.Err == nil {
				a.Err = fmt.Errorf("unexpected outcome %q", a.Outcome)
			}
			a.Outcome = OutcomeFailed
		}
		if cb != nil {
			switch a.Outcome {
			case OutcomeSucceeded:
				cb.RecordSuccess()
			case OutcomeFailed:
				cb.RecordFailure()
			default:
				cb.Release()
			}
		}
		span.SetAttributes(attribute.String(telemetry.ExportOutcomeKey, string(a.Outcome)))
		if a.Outcome == OutcomeFailed {
			telemetry.RecordError(span, a.Err, string(a.Outcome))
		}
		span.End()
	}()

	a.Outcome, a.Err = s.Deliver(ctx, p)
	return a
}

// Breaker returns the breaker guarding a strategy, or nil.
func (c *Coordinator) Breaker(name StrategyName) *resilience.CircuitBreaker {
	return c.breakers[name]
}
