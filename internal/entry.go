// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notebox/internal/api"
	"github.com/starford/notebox/internal/events"
	"github.com/starford/notebox/internal/imagecodec"
	"github.com/starford/notebox/internal/mcpserver"
	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/notestore"
	"github.com/starford/notebox/internal/sse"
)

const eventBuffer = 64

// NewLogger builds the structured JSON logger used everywhere.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// build applies opts. Without WithLogger, logs go to logOut.
func build(opts []Option, logOut io.Writer) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = NewLogger(logOut, app.config.App.LogLevel)
	}
	return app, nil
}

// OpenService opens the configured note store and wires a service over it.
// The caller owns the store and must Close it.
func OpenService(ctx context.Context, cfg *Config, logger *slog.Logger, pub events.Publisher) (*noteservice.Service, *notestore.Store, error) {
	store, err := notestore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open note store: %w", err)
	}

	opts := []noteservice.Option{
		noteservice.WithLogger(logger),
		noteservice.WithImagePolicy(cfg.Images.Policy()),
		noteservice.WithPageSize(cfg.Pager.PageSize),
	}
	if pub != nil {
		opts = append(opts, noteservice.WithPublisher(pub))
	}
	svc := noteservice.NewService(store, imagecodec.New(cfg.Images.TempDir), opts...)
	return svc, store, nil
}

// newHTTPHandler assembles the top-level router: middleware, health checks and
// the API under /api.
func newHTTPHandler(cfg *Config, svc *noteservice.Service, ready func(context.Context) error, broker *sse.Broker) http.Handler {
	var limiter *api.RateLimiter
	if cfg.App.HTTP.RateLimit > 0 {
		limiter = api.NewRateLimiter(cfg.App.HTTP.RateLimit, cfg.App.HTTP.RateBurst)
	}
	var sseHandler http.Handler
	if broker != nil {
		sseHandler = broker
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := ready(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, sseHandler, limiter))
	return r
}

// Run starts the HTTP server with the given options and blocks until a
// shutdown signal or ctx is done.
func Run(ctx context.Context, opts ...Option) error {
	app, err := build(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("image_policy", cfg.Images.OnReadError),
		slog.Int("page_size", cfg.Pager.PageSize),
		slog.String("log_level", cfg.App.LogLevel.String()))

	bus := events.NewBus(eventBuffer, logger)
	defer bus.Close()

	svc, store, err := OpenService(ctx, cfg, logger, bus)
	if err != nil {
		return err
	}
	defer store.Close()

	// SSE broker fed from the event bus.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, svc, store.Ping, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Relay note events to live views.
	noteEvents, err := bus.Subscribe(gCtx)
	if err != nil {
		return fmt.Errorf("subscribe to note events: %w", err)
	}
	g.Go(func() error {
		broker.Forward(gCtx, noteEvents)
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the event relay stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := build(opts, os.Stderr)
	if err != nil {
		return err
	}

	svc, store, err := OpenService(ctx, app.config, app.logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	app.logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}
