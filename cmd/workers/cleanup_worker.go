package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"newsroom/editorial-portal/editorial-portal-backend/internal/config"
	"newsroom/editorial-portal/editorial-portal-backend/internal/notifications"
)

// The cleanup worker purges notifications past their retention window on
// a cron schedule. It runs as its own binary so the API can be restarted
// independently of housekeeping.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to initialize ORM", zap.Error(err))
	}

	service, err := notifications.NewService(gormDB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize notification service", zap.Error(err))
	}

	retention := time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour

	c := cron.New()
	_, err = c.AddFunc(cfg.Notifications.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := service.CleanupOld(ctx, retention)
		if err != nil {
			logger.Error("Notification cleanup failed", zap.Error(err))
			return
		}
		logger.Info("Notification cleanup finished", zap.Int64("deleted", count))
	})
	if err != nil {
		logger.Fatal("Invalid cleanup schedule", zap.String("schedule", cfg.Notifications.CleanupSchedule), zap.Error(err))
	}

	logger.Info("Cleanup worker starting",
		zap.String("schedule", cfg.Notifications.CleanupSchedule),
		zap.Int("retention_days", cfg.Notifications.RetentionDays))
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received")
	<-c.Stop().Done()
	logger.Info("Cleanup worker stopped")
}
