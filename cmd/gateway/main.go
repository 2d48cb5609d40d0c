// cmd/gateway/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"railway-gateway/internal/common/config"
	"railway-gateway/internal/common/database"
	"railway-gateway/internal/common/logger"
	"railway-gateway/internal/common/observability"
	"railway-gateway/internal/gateway"
	"railway-gateway/internal/provider"
	"railway-gateway/internal/server"
	"railway-gateway/internal/stations"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting railway gateway...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis response cache (optional) ---
	var cache provider.Cache
	if cfg.Cache.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Cache)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			// The cache is an optimization; the gateway serves without it.
			zapLog.Warn("redis unavailable, running without response cache", zap.Error(err))
		} else {
			defer redis.Close()
			cache = redis
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Station directory and upstream client ---
	directory := stations.NewDirectory(cfg.Stations.Cities, cfg.Stations.ExtraCodes)
	client := provider.NewClient(cfg.Provider, cfg.Cache, cache, log)

	dispatcher := gateway.New(directory, client, cfg.Gateway, log).
		WithObservability(obs)

	// --- HTTP surface ---
	srv := server.New(cfg.Server, dispatcher, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	zapLog.Info("Gateway is running", zap.String("address", cfg.Server.Address))

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Gateway stopped")
}
