package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/aggregate"
	"github.com/fmachado/propstack/internal/api"
	"github.com/fmachado/propstack/internal/config"
	"github.com/fmachado/propstack/internal/db"
	"github.com/fmachado/propstack/internal/metrics"
	"github.com/fmachado/propstack/internal/platform"
	"github.com/fmachado/propstack/internal/pool"
	"github.com/fmachado/propstack/internal/registry"
	"github.com/fmachado/propstack/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if cfg.Server.Mode == "debug" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer logger.Sync()

	// Platform database
	platformDB, err := db.Connect(cfg.Platform, cfg.Pools)
	if err != nil {
		logger.Fatal("Failed to connect to platform database", zap.Error(err))
	}
	defer platformDB.Close()

	if err := db.Migrate(platformDB, migrations.FS, "platform"); err != nil {
		logger.Fatal("Failed to run platform migrations", zap.Error(err))
	}

	// Wiring: registry -> pool manager -> aggregation engine -> service
	stats := metrics.NewCollector()
	reg := registry.New(platformDB)
	pools := pool.NewManager(platformDB, reg,
		pool.PostgresOpener(cfg.Pools, cfg.Platform.SSLMode), stats, logger)
	defer pools.Close()

	engine := aggregate.NewEngine(reg, pools, stats, logger, cfg.Aggregate.QueryTimeout)
	service := platform.NewService(reg, pools, engine, logger)

	server := api.NewServer(cfg, service, pools, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
