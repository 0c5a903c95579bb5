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

	"github.com/priyamvad/credflow/internal/api"
	"github.com/priyamvad/credflow/internal/config"
	"github.com/priyamvad/credflow/internal/engine"
	"github.com/priyamvad/credflow/internal/scorer"
)

func main() {
	// .env is optional, for local development.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("CREDFLOW_ADDR", ":8080"), "HTTP listen address")
	cfgPath := flag.String("config", envOr("CREDFLOW_CONFIG", "configs/credflow.yaml"), "Path to YAML config")
	modelPath := flag.String("model", os.Getenv("CREDFLOW_MODEL"), "Scoring artifact path (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Scoring artifact ──────────────────────────────────────────────────────
	artifactPath := cfg.Model.Path
	if *modelPath != "" {
		artifactPath = *modelPath
	}
	handle := scorer.NewHandle(artifactPath)
	if err := handle.Load(); err != nil {
		// Absence must not prevent startup: Gate 2 issues Error decisions
		// until a valid artifact appears.
		slog.Warn("scoring artifact unavailable, running degraded", "path", artifactPath, "err", err)
	} else {
		a := handle.Artifact()
		slog.Info("scoring artifact loaded", "version", a.Version, "features", len(a.Features))
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, handle, nil, cfg)

	// ── Hot-reload watchers ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		eng.SwapConfig(newCfg)
		slog.Info("config hot-reloaded",
			"approve_threshold", newCfg.Waterfall.ApproveThreshold,
			"reject_threshold", newCfg.Waterfall.RejectThreshold)
	})
	stopCfgWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopCfgWatch()
	}

	stopModelWatch, err := handle.Watch()
	if err != nil {
		slog.Warn("artifact watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopModelWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.New(eng),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
