package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/promptlab/promptlab/internal/api"
	"github.com/promptlab/promptlab/internal/config"
	"github.com/promptlab/promptlab/internal/ledger"
	"github.com/promptlab/promptlab/internal/middleware"
	"github.com/promptlab/promptlab/internal/ollama"
	"github.com/promptlab/promptlab/internal/registry"
	"github.com/promptlab/promptlab/internal/session"
	"github.com/promptlab/promptlab/internal/store"
	"github.com/promptlab/promptlab/internal/template"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the PromptLab server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.Info("Starting server", "port", cfg.Port, "backend", cfg.OllamaURL)

	// Initialize dependencies.
	st, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	if err := st.Ping(context.Background()); err != nil {
		return err
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	lgr, err := ledger.New(context.Background(), st, logger)
	if err != nil {
		return err
	}

	templates, err := template.New(context.Background(), st, logger)
	if err != nil {
		return err
	}
	if cfg.TemplatesFile != "" {
		if err := templates.SeedFile(context.Background(), cfg.TemplatesFile); err != nil {
			slog.Warn("Failed to seed templates from file", "path", cfg.TemplatesFile, "error", err)
		}
	}

	reg := registry.Default()
	if cfg.ModelsFile != "" {
		loaded, err := registry.LoadFile(cfg.ModelsFile)
		if err != nil {
			slog.Warn("Failed to load models file, using built-in registry", "path", cfg.ModelsFile, "error", err)
		} else {
			reg = loaded
		}
	}

	client := ollama.NewClient(cfg.OllamaURL, logger)
	controller := session.NewController(client, lgr, reg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connectivity failures are a status, not an error: start serving either way.
	monitor := ollama.NewMonitor(client, cfg.ProbeInterval, logger)
	monitor.Start(ctx)

	// Initialize handlers.
	handler := api.NewHandler(lgr, templates, reg, monitor, client)
	streamHandler := api.NewStreamHandler(controller, cfg.AllowedOrigin, cfg.IsDevelopment(), logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	corsOrigins := []string{"*"}
	if cfg.AllowedOrigin != "" {
		corsOrigins = []string{cfg.AllowedOrigin}
	}
	r.Use(middleware.CORS(corsOrigins))

	handler.RegisterRoutes(r)
	r.Get("/ws/generate", streamHandler.ServeHTTP)

	// WebSocket generation sessions can stay open for minutes, so no write
	// timeout on the server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("Server stopped successfully")
	return nil
}
