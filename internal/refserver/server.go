// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package refserver serves temporary references over HTTP so a playback
// element or a new browsing context can read recorded media.
package refserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ManuGH/leadcam/internal/cache"
	"github.com/ManuGH/leadcam/internal/health"
	xglog "github.com/ManuGH/leadcam/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config configures the reference server.
type Config struct {
	ListenAddr  string
	RateLimit   int
	RateWindow  time.Duration
	ServiceName string // empty disables tracing
	Health      *health.Manager
}

// Server exposes cached blobs read-only at GET /refs/{id}.
type Server struct {
	cfg     Config
	blobs   cache.BlobCache
	router  *chi.Mux
	logger  zerolog.Logger
	httpSrv *http.Server
}

// New builds the router. Nothing listens until ListenAndServe.
func New(cfg Config, blobs cache.BlobCache) *Server {
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.Health == nil {
		cfg.Health = health.NewManager("")
	}
	s := &Server{
		cfg:    cfg,
		blobs:  blobs,
		logger: xglog.WithComponent("refserver"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	if cfg.ServiceName != "" {
		r.Use(tracing(cfg.ServiceName))
	}
	r.Use(accessLog)

	r.Get("/healthz", cfg.Health.ServeHealth)
	r.Get("/readyz", cfg.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(rateLimit(cfg.RateLimit, cfg.RateWindow))
		}
		r.Get("/refs/{id}", s.handleRef)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleRef(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := s.blobs.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, cache.ErrNotFound) {
			status = http.StatusNotFound
		} else {
			s.logger.Error().Err(err).Str(xglog.FieldRef, id).Msg("reference lookup failed")
		}
		writeError(w, status, http.StatusText(status))
		return
	}

	if item.MimeType != "" {
		w.Header().Set("Content-Type", item.MimeType)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, id, time.Time{}, bytes.NewReader(item.Data))
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": detail})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// ready, if non-nil, receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr().String())
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("reference server listening")

	errc := make(chan error, 1)
	go func() { errc <- s.httpSrv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.httpSrv.Shutdown(shutdownCtx)
		<-errc
		return err
	}
}
