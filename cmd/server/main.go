// Package main runs the AR content platform HTTP server: content and video
// management, rotation schedules, the viewer-facing active-video endpoint and
// the WebSocket hub that pushes rotation events.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lumen-ar/backend/config"
	"github.com/lumen-ar/backend/internal/auth"
	"github.com/lumen-ar/backend/internal/contents"
	"github.com/lumen-ar/backend/internal/middleware"
	"github.com/lumen-ar/backend/internal/realtime"
	"github.com/lumen-ar/backend/internal/rotation"
	"github.com/lumen-ar/backend/internal/schedules"
	"github.com/lumen-ar/backend/internal/videos"
	"github.com/lumen-ar/backend/pkg/database"
	"github.com/lumen-ar/backend/pkg/queue"
	"github.com/lumen-ar/backend/pkg/redis"
	"github.com/lumen-ar/backend/pkg/response"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			VideosBucket:         cfg.AWS.VideosBucket,
			MarkersBucket:        cfg.AWS.MarkersBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	clock := rotation.SystemClock{}

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Contents and the active-video resolver
	contentRepo := contents.NewRepository(pool)
	resolver := rotation.NewResolver(contentRepo)
	contentHandler := contents.NewHandler(contentRepo, resolver, clock, hub, s3Client, logger)

	// Videos (S3-backed uploads, presigned URLs, background imports)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	videoRepo := videos.NewRepository(pool)
	videoHandler := videos.NewHandler(videoRepo, contentRepo, s3Client, jobQueue, logger)

	// Rotation schedules and the driver
	scheduleRepo := schedules.NewRepository(pool)
	scheduleHandler := schedules.NewHandler(scheduleRepo, contentRepo, clock, logger)
	driver := rotation.NewDriver(scheduleRepo, clock, hub, cfg.Rotation.TickSeconds, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public viewer API: which video plays for this marker right now.
	router.GET("/contents/:id/active-video", contentHandler.ActiveVideo)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Content items
		api.GET("/contents", contentHandler.List)
		api.POST("/contents", middleware.RequireRole("admin", "editor"), contentHandler.Create)
		api.GET("/contents/:id", contentHandler.GetByID)
		api.PATCH("/contents/:id", middleware.RequireRole("admin", "editor"), contentHandler.Update)
		api.DELETE("/contents/:id", middleware.RequireRole("admin"), contentHandler.Delete)
		api.POST("/contents/:id/pin", middleware.RequireRole("admin", "editor"), contentHandler.Pin)
		api.DELETE("/contents/:id/pin", middleware.RequireRole("admin", "editor"), contentHandler.Unpin)
		api.POST("/contents/:id/marker", middleware.RequireRole("admin", "editor"), contentHandler.UploadMarker)
		api.GET("/contents/:id/marker-url", contentHandler.MarkerDownloadURL)
		api.GET("/contents/:id/viewers", contentHandler.Viewers(hub))

		// Videos. Use /videos/upload for public bucket (no presigned URL, no CORS).
		api.GET("/contents/:id/videos", videoHandler.ListByContent)
		api.POST("/contents/:id/videos/upload", middleware.RequireRole("admin", "editor"), videoHandler.Upload)
		api.POST("/contents/:id/videos/generate-upload-url", middleware.RequireRole("admin", "editor"), videoHandler.GenerateUploadURL)
		api.POST("/contents/:id/videos", middleware.RequireRole("admin", "editor"), videoHandler.Create)
		api.POST("/contents/:id/videos/import", middleware.RequireRole("admin", "editor"), videoHandler.Import)
		api.PATCH("/videos/:id", middleware.RequireRole("admin", "editor"), videoHandler.UpdateSettings)
		api.DELETE("/videos/:id", middleware.RequireRole("admin", "editor"), videoHandler.Delete)

		// Rotation schedules
		api.GET("/contents/:id/schedule", scheduleHandler.Get)
		api.PUT("/contents/:id/schedule", middleware.RequireRole("admin", "editor"), scheduleHandler.Put)
		api.POST("/contents/:id/schedule/enable", middleware.RequireRole("admin", "editor"), scheduleHandler.Enable)
		api.POST("/contents/:id/schedule/disable", middleware.RequireRole("admin", "editor"), scheduleHandler.Disable)
		api.DELETE("/contents/:id/schedule", middleware.RequireRole("admin", "editor"), scheduleHandler.Delete)
	}

	// WebSocket (public; viewers subscribe to rotation events per content)
	router.GET("/ws", realtime.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Rotation driver runs in-process; schedule rows are locked per step so a
	// separate worker process can run the driver concurrently without double
	// rotations.
	driverCtx, driverCancel := context.WithCancel(context.Background())
	defer driverCancel()
	go driver.Run(driverCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	driverCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
