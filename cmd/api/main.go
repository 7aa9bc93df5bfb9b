// Command api serves the Senior-Junior Collab HTTP API.
//
//go:generate swag init -d ../../ -g cmd/api/main.go -o ../../docs
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"SeniorJunior-backend/internal/config"
	"SeniorJunior-backend/internal/logger"
	"SeniorJunior-backend/internal/server"
)

// @title Senior-Junior Collab API
// @version 1.0
// @description Job board connecting senior developers who post projects with junior developers who apply to them.
// @BasePath /api
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Production())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() {
		_ = zl.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, zl)
	cancel()
	if err != nil {
		zl.Fatal("failed to initialize server", zap.Error(err))
	}

	httpServer := srv.HTTPServer()
	go func() {
		zl.Info("server listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown", zap.Error(err))
	}
	if err := srv.Close(); err != nil {
		zl.Error("closing backends", zap.Error(err))
	}
	zl.Info("graceful shutdown complete")
}
