package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/match-chat/config"
	_ "github.com/d60-Lab/match-chat/docs"
	"github.com/d60-Lab/match-chat/internal/api"
	"github.com/d60-Lab/match-chat/internal/api/handler"
	"github.com/d60-Lab/match-chat/internal/repository"
	"github.com/d60-Lab/match-chat/internal/service"
	"github.com/d60-Lab/match-chat/internal/ws"
	"github.com/d60-Lab/match-chat/pkg/database"
	"github.com/d60-Lab/match-chat/pkg/logger"
	"github.com/d60-Lab/match-chat/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// @title match-chat API
// @version 1.0
// @description 匹配 + 实时聊天服务
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()
	gin.SetMode(cfg.Server.Mode)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := must(tracing.Init(ctx, cfg))
	defer func() { _ = shutdownTracing(context.Background()) }()

	db := must(database.InitDB(cfg))
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// repositories
	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	// hub + services
	hub := ws.NewHub()
	notifier := service.NewNotifier(rdb, hub)
	stopNotifier := must(notifier.Start(ctx))

	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	matchSvc := service.NewMatchService(userRepo, likeRepo, matchRepo, notifier)
	chatSvc := service.NewChatService(matchRepo, msgRepo, hub)

	h := handler.New(authSvc, matchSvc, chatSvc, userRepo, hub)
	r := api.NewRouter(h, authSvc, cfg.Otel.Enabled)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := stopNotifier(shutdownCtx); err != nil {
		logger.Error("notifier shutdown", zap.Error(err))
	}
}
