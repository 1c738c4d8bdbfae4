package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/trust"
	"github.com/creaverse/dao-rewards/pkg/config"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Creaverse trust sweep")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Initialize database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	repo := db.NewRepository(database.DB)

	sweep := trust.NewSweep(trust.NewEstimator(repo), repo,
		cfg.Trust.SweepInterval, cfg.Trust.SweepWindow, cfg.Trust.SweepBatch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sweep.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Trust sweep stopped", zap.Error(err))
	}
	logger.Info("Trust sweep exited")
}
