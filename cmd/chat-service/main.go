package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/nakshtra/chat-service/internal/auth"
	"github.com/nakshtra/chat-service/internal/config"
	"github.com/nakshtra/chat-service/internal/directory"
	"github.com/nakshtra/chat-service/internal/domain"
	"github.com/nakshtra/chat-service/internal/handler"
	"github.com/nakshtra/chat-service/internal/hub"
	"github.com/nakshtra/chat-service/internal/presence"
	"github.com/nakshtra/chat-service/internal/repository"
	"github.com/nakshtra/chat-service/internal/service"
	"github.com/nakshtra/chat-service/pkg/database"
	"github.com/nakshtra/chat-service/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log.Init(cfg.Log)
	logger := log.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.MessageModel{}, &domain.UserModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	repo := repository.NewGormMessageRepository(db)
	dir := directory.NewGormDirectory(db)

	var pres presence.Store
	switch cfg.Presence.Backend {
	case "redis":
		pres, err = presence.NewRedisStore(cfg.Presence)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to presence store")
		}
	default:
		pres = presence.NewMemoryStore()
	}

	h := hub.NewHub()
	go h.Run()

	verifier := auth.NewJWTVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	chatService := service.NewChatService(h, repo, dir, pres, cfg.History.Limit)

	wsHandler := handler.NewWSHandler(h, chatService, verifier, dir, pres, cfg.WebSocket)
	chatHandler := handler.NewChatHandler(chatService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(log.GinMiddleware(logger), gin.Recovery())

	router.GET("/health", chatHandler.Health)
	router.GET("/ws/chat", wsHandler.HandleWebSocket)

	api := router.Group("/api/v1/chat", handler.AuthMiddleware(verifier))
	{
		api.GET("/users", chatHandler.ListUsers)
		api.GET("/history/:user_id", chatHandler.GetHistory)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("chat service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("server shutdown failed")
		}
		if err := pres.Close(); err != nil {
			logger.Warn().Err(err).Msg("presence store close failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("chat service exited with error")
	}
	logger.Info().Msg("chat service stopped")
}
