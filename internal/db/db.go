package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/pkg/config"
	"github.com/creaverse/dao-rewards/pkg/logging"
)

// zapWriter adapts zap.Logger to logger.Writer interface
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

// DB wraps GORM database connection
type DB struct {
	*gorm.DB
}

// New creates a new PostgreSQL connection
func New(cfg *config.DatabaseConfig, logLevel string) (*DB, error) {
	d, err := Open(postgres.Open(cfg.URL), logLevel)
	if err != nil {
		return nil, err
	}

	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.WithComponent("db").Info("Database connection established")

	if cfg.AutoMigrate {
		if err := d.Migrate(); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Open opens a gorm connection on any dialector. Tests use it with SQLite.
func Open(dialector gorm.Dialector, logLevel string) (*DB, error) {
	gormLogger := logger.New(
		&zapWriter{logger: logging.WithComponent("gorm")},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db}, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logger.Info
	case "INFO":
		return logger.Warn
	case "WARN", "WARNING":
		return logger.Error
	case "ERROR":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// Migrate creates or updates every table the pipeline uses
func (d *DB) Migrate() error {
	if err := d.DB.AutoMigrate(
		&models.Profile{},
		&models.Post{},
		&models.Like{},
		&models.Save{},
		&models.Follow{},
		&models.BehaviorLog{},
		&models.TrustRecord{},
		&models.RewardEvent{},
		&models.TokenTransaction{},
		&models.ActivityStreak{},
		&models.RecommendationCacheEntry{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database health
func (d *DB) Health(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
