package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/user-rbac/api"
	"github.com/frahmantamala/user-rbac/internal/transport/middleware"
	"github.com/frahmantamala/user-rbac/internal/transport/rest"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := newApplication(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	router, err := setupRoutes(app)
	if err != nil {
		slog.Error("Failed to set up routes", "error", err)
		return
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting HTTP server", "address", addr, "env", cfg.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			return
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(app *application) (*chi.Mux, error) {
	cfg := app.Config
	router := chi.NewRouter()

	opts := rest.Options{
		DB:             app.SQLX.DB,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Production:     cfg.IsProduction(),
		AuthRateLimit:  cfg.Security.AuthRateLimit,
		Logger:         app.Logger,
	}
	if app.Redis != nil {
		opts.Redis = app.Redis
	}

	if cfg.Observability.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewDBStatsCollector(app.SQLX.DB, "postgres"),
		)
		opts.Metrics = middleware.NewMetrics(registry)
		opts.MetricsPath = cfg.Observability.Metrics.Path
	}

	if cfg.Server.ValidateRequests {
		validator, err := middleware.NewOpenAPIValidator(api.OpenAPI, api.BasePath, app.Logger)
		if err != nil {
			return nil, err
		}
		opts.Validator = validator
	}

	rest.RegisterAllRoutes(router, app.Handlers(), opts)
	return router, nil
}
