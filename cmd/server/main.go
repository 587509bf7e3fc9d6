package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"fairness/internal/abuse"
	"fairness/internal/cache"
	"fairness/internal/config"
	cronrunner "fairness/internal/cron"
	"fairness/internal/db"
	"fairness/internal/handler"
	"fairness/internal/logger"
	gormrepository "fairness/internal/repository/gorm"
	"fairness/internal/reputation"
	"fairness/internal/reward"

	_ "fairness/docs"
)

func main() {
	cfgPath := os.Getenv("FAIR_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FAIR_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	denialCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn("cache init failed, running without fast path", zap.Error(err))
		denialCache = cache.NopStore{}
	}

	scorer := &reputation.Scorer{Repo: store, Logger: logger, Config: cfg.Reputation}
	detector := &abuse.Detector{Repo: store, Logger: logger, Cache: denialCache, Config: cfg.Abuse}
	normalizer := &reward.Normalizer{Repo: store, Logger: logger, Config: cfg.Reward}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	reputationHandler := &handler.ReputationHandler{Scorer: scorer}
	reputationHandler.Register(engine)
	abuseHandler := &handler.AbuseHandler{Detector: detector}
	abuseHandler.Register(engine)
	rewardHandler := &handler.RewardHandler{
		Detector:   detector,
		Normalizer: normalizer,
		Repo:       store,
		Logger:     logger,
	}
	rewardHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add("metrics_sweep", cfg.Cron.MetricsSweep, func(ctx context.Context) {
			scorer.SweepStale(ctx)
		})
		if err != nil {
			logger.Warn("cron register metrics sweep failed", zap.Error(err))
		}
		_, err = cronRunner.Add("activity_retention", cfg.Cron.ActivityRetention, func(ctx context.Context) {
			retention := cfg.Reward.ActivityRetention
			if retention <= 0 {
				return
			}
			n, err := store.DeleteActivitiesBefore(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				logger.Warn("activity retention failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("deleted expired activities", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register activity retention failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
