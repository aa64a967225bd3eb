// Package api serves the read-only status endpoints of the notification
// scheduler.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/albapepper/rollcall/internal/api/handler"
	"github.com/albapepper/rollcall/internal/notifications"
)

const (
	rateLimitRequests = 60
	rateLimitWindow   = time.Minute
	shutdownTimeout   = 5 * time.Second
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(status *notifications.Status, cfg notifications.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)

	c := corslib.New(corslib.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Use(RateLimitMiddleware(rateLimitRequests, rateLimitWindow))

	h := handler.New(status, cfg, nil)

	// --- Routes ---
	r.Get("/health", h.HealthCheck)
	r.Get("/status", h.Status)

	return r
}

// Serve runs the status server on addr until ctx is cancelled, then shuts it
// down gracefully. Intended to be called with `go`.
func Serve(ctx context.Context, addr string, router http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Status server stopped")
	return nil
}
