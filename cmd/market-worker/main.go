package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/config"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/db"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/engine"

	"golang.org/x/sync/errgroup"
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
	pool, err := db.Connect(ctx, cfg.DatabaseURL, "market-worker")
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

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("MARKET_WORKER_RUN_ONCE")), "true")
	if runOnce {
		n, err := eng.RecordPriceTicks(ctx)
		if err != nil {
			logger.Error("price tick failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "players_ticked", n)
		return
	}

	logger.Info("worker started", "tick_every", cfg.WorkerTickEvery.String())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(cfg.WorkerTickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := eng.RecordPriceTicks(ctx)
				if err != nil {
					logger.Error("price tick failed", "err", err)
					continue
				}
				logger.Info("price tick complete", "players_ticked", n)
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := eng.PruneSessions(ctx)
				if err != nil {
					logger.Error("session prune failed", "err", err)
					continue
				}
				if n > 0 {
					logger.Info("sessions pruned", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker failed", "err", err)
		os.Exit(1)
	}
	logger.Info("worker shutdown")
}
