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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Clark-Hu/myflix-api/internal/auth"
	"github.com/Clark-Hu/myflix-api/internal/backend"
	"github.com/Clark-Hu/myflix-api/internal/config"
	httpserver "github.com/Clark-Hu/myflix-api/internal/http"
	"github.com/Clark-Hu/myflix-api/internal/logging"
	"github.com/Clark-Hu/myflix-api/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := metrics.NewRegistry()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	b, err := backend.Open(dbCtx, cfg, logger)
	if err != nil {
		logger.Fatal("open backend", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer b.Close()
	if b.PoolStats != nil {
		if err := reg.RegisterPool(b.PoolStats); err != nil {
			logger.Fatal("register pool metrics", zap.Error(err))
		}
	}

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLHours)*time.Hour)
	server := httpserver.New(cfg, b.Health, b.Repo, tokens, reg, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}
