package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/api"
	"github.com/d60-Lab/socialgraph/internal/api/handler"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/database"
	"github.com/d60-Lab/socialgraph/pkg/logger"
	"github.com/d60-Lab/socialgraph/pkg/observability"
)

// @title Social Graph API
// @version 1.0
// @description 关注关系、好友申请与话题发现
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	if err := logger.Init(cfg.Log.Env, cfg.Log.Level); err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}
	defer logger.Sync()

	ctx := context.Background()
	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		logger.Get().Fatal("init tracer", zap.Error(err))
	}
	flushSentry, err := observability.InitSentry(cfg.Sentry)
	if err != nil {
		logger.Get().Fatal("init sentry", zap.Error(err))
	}
	defer flushSentry()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Get().Fatal("init database", zap.Error(err))
	}

	var client *redis.Client
	if cfg.Redis.Enabled {
		client = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, aggregate cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = client.Close()
			client = nil
		} else {
			defer client.Close()
		}
	}
	c := cache.New(client, cfg.Engine.CacheTTL)

	store := repository.NewStore(db)
	opts := service.OptionsFromConfig(cfg.Engine)
	h := handler.NewHandler(service.NewFollowService(store, c, opts), service.NewHashtagService(store, c, opts))
	router := api.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Fatal("listen", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", srv.Addr), zap.Bool("cache", c != nil))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server exited")
}
