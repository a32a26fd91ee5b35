package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	flag.Parse()

	logger, err := logging.New(*logFormat, *logLevel, os.Stdout)
	if err != nil {
		slog.Error("invalid logging flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := gorus.DefaultConfig()
	if *configPath != "" {
		cfg, err = gorus.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	cfg.ApplyEnv()

	apiKey := os.Getenv("GORUS_API_KEY")
	corsOrigins := os.Getenv("GORUS_CORS_ORIGINS")

	engine, err := gorus.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      newServer(engine, apiKey, corsOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "languages", engine.Languages())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// newServer builds the routed handler with its middleware chain:
// request id -> recovery -> cors -> logging -> auth -> mux.
func newServer(engine gorus.Engine, apiKey, corsOrigins string) http.Handler {
	h := newHandler(engine)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /relations", h.handleRelations)
	mux.HandleFunc("POST /sentences", h.handleSentences)
	mux.HandleFunc("GET /languages", h.handleLanguages)
	mux.HandleFunc("GET /health", h.handleHealth)

	var handler http.Handler = mux
	handler = authMiddleware(apiKey, handler)
	handler = logMiddleware(handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}
