package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/mapnotes/internal/core/health"
	middleware "github.com/mohammed-shakir/mapnotes/internal/core/middleware"
	"github.com/mohammed-shakir/mapnotes/internal/httpapi"
)

// Deps are the handlers mounted next to the API.
type Deps struct {
	API          *httpapi.Handler
	Metrics      http.Handler // nil disables /metrics
	Ready        health.Pinger
	ReadyTimeout time.Duration
}

// NewRouter wires the middleware chain, probes, metrics and the API.
func NewRouter(logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	if d.Ready != nil {
		r.Get("/readyz", health.Readiness(d.Ready, d.ReadyTimeout))
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.API != nil {
		d.API.Routes(r)
	}
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, addr string, shutdown time.Duration, logger *slog.Logger, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		if shutdown <= 0 {
			shutdown = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
