package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/app"
	"github.com/filmchain/track-shorts/internal/config"
	"github.com/filmchain/track-shorts/internal/logger"
	"github.com/filmchain/track-shorts/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	zapLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := app.NewApplication(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to start application", zap.Error(err))
	}
	defer app.Close()

	r := routes.SetupRoutes(app)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLogger.Info("Server started", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("Error starting server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
