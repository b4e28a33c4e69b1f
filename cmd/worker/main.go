// Package main runs the background job worker: video imports from source URLs
// and a standalone rotation driver instance.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lumen-ar/backend/config"
	"github.com/lumen-ar/backend/internal/contents"
	"github.com/lumen-ar/backend/internal/rotation"
	"github.com/lumen-ar/backend/internal/schedules"
	"github.com/lumen-ar/backend/internal/videos"
	"github.com/lumen-ar/backend/internal/worker"
	"github.com/lumen-ar/backend/pkg/database"
	"github.com/lumen-ar/backend/pkg/queue"
	"github.com/lumen-ar/backend/pkg/redis"
	"github.com/lumen-ar/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		VideosBucket:         cfg.AWS.VideosBucket,
		MarkersBucket:        cfg.AWS.MarkersBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	contentRepo := contents.NewRepository(pool)
	videoRepo := videos.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewImportProcessor(videoRepo, contentRepo, s3Client, jobQueue, logger)

	// The driver is safe to run here next to the server's instance: each
	// rotation step locks its schedule row and re-checks dueness.
	scheduleRepo := schedules.NewRepository(pool)
	driver := rotation.NewDriver(scheduleRepo, rotation.SystemClock{}, nil, cfg.Rotation.TickSeconds, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go driver.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
