package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/api"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/config"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/db"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/engine"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/stream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL, "market-api")
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	eng := engine.NewService(pool, logger, cfg.Params)
	eng.SetTokenPepper(cfg.SessionTokenPepper)
	eng.SetSessionTTL(cfg.SessionTTL)

	if cfg.StartupSeedPlayers {
		if err := eng.SeedDefaults(ctx); err != nil {
			logger.Error("seed defaults failed", "err", err)
			os.Exit(1)
		}
	}

	hub := stream.NewHub(logger)
	go hub.Run()
	eng.SetPublisher(hub)

	server := api.New(cfg, logger, eng, hub)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("market api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
