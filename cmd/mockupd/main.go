// Command mockupd serves the layer compositor over HTTP.
package main

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/gogpu/mockup"
	"github.com/gogpu/mockup/internal/api"
	"github.com/gogpu/mockup/internal/app"
	"github.com/gogpu/mockup/internal/config"
	"github.com/gogpu/mockup/internal/events"
	"github.com/gogpu/mockup/internal/preview"
	"github.com/gogpu/mockup/internal/storage"
	"github.com/gogpu/mockup/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	mockup.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := cfg.CompositorOptions()
	if err != nil {
		logger.Error("invalid compositor settings", "error", err)
		os.Exit(1)
	}
	previewOpts := cfg.PreviewOptions()
	if len(previewOpts.AllowedHosts) == 0 {
		logger.Warn("no preview host restriction, set PREVIEW_ALLOWED_HOSTS or SUPABASE_URL")
	}
	opts = append(opts, mockup.WithFetcher(preview.NewHTTPFetcher(previewOpts)))

	svcCfg := app.Config{Options: opts, Exchange: cfg.EventsExchange}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("unable to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		repo := store.NewRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		svcCfg.Recorder = repo
		logger.Info("database connection established")
	} else {
		logger.Warn("DATABASE_URL not set, generation history disabled")
	}

	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		uploader, err := storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
		if err != nil {
			logger.Error("unable to create storage client", "error", err)
			os.Exit(1)
		}
		svcCfg.Uploader = uploader
		logger.Info("storage configured", "bucket", cfg.SupabaseBucket)
	} else {
		logger.Warn("Supabase storage not configured, images are returned inline")
	}

	if cfg.RabbitMQURL != "" {
		producer, err := events.NewProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, events disabled", "error", err)
		} else {
			defer producer.Close()
			svcCfg.Publisher = producer
		}
	}

	if cfg.JWTSecret == "" {
		logger.Error("SUPABASE_JWT_SECRET is required")
		os.Exit(1)
	}

	handler := api.NewHandler(app.NewService(svcCfg), cfg.MaxUploadBytes)
	router := api.NewRouter(handler, api.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		JWTAudience:    cfg.JWTAudience,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
