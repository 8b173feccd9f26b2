// Scheduler refreshes the materialized per-tenant performance summaries on
// an interval. It runs as its own binary; the API core itself never does
// background aggregation.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/aggregate"
	"github.com/fmachado/propstack/internal/config"
	"github.com/fmachado/propstack/internal/db"
	"github.com/fmachado/propstack/internal/metrics"
	"github.com/fmachado/propstack/internal/platform"
	"github.com/fmachado/propstack/internal/pool"
	"github.com/fmachado/propstack/internal/registry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer logger.Sync()

	platformDB, err := db.Connect(cfg.Platform, cfg.Pools)
	if err != nil {
		logger.Fatal("Failed to connect to platform database", zap.Error(err))
	}
	defer platformDB.Close()

	stats := metrics.NewCollector()
	reg := registry.New(platformDB)
	pools := pool.NewManager(platformDB, reg,
		pool.PostgresOpener(cfg.Pools, cfg.Platform.SSLMode), stats, logger)
	defer pools.Close()

	engine := aggregate.NewEngine(reg, pools, stats, logger, cfg.Aggregate.QueryTimeout)
	service := platform.NewService(reg, pools, engine, logger)

	ctx, cancel := context.WithCancel(context.Background())

	// Sync summaries every hour
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	runSync := func() {
		report, err := service.SyncSummaries(ctx)
		if err != nil {
			logger.Error("Summary sync failed", zap.Error(err))
			return
		}
		failed := 0
		for _, o := range report.Outcomes {
			if o.Status != "synced" {
				failed++
			}
		}
		logger.Info("Summary sync completed",
			zap.String("run_id", report.RunID),
			zap.Int("tenants", len(report.Outcomes)),
			zap.Int("failed", failed),
		)
	}

	go func() {
		runSync()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runSync()
			}
		}
	}()

	logger.Info("Scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	cancel()
	logger.Info("Scheduler stopped")
}
