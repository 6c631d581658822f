package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/surgepay/surgepay/internal/config"
	"github.com/surgepay/surgepay/internal/infra"
	"github.com/surgepay/surgepay/internal/jobs"
	"github.com/surgepay/surgepay/internal/logging"
	"github.com/surgepay/surgepay/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is the session fast path, not a requirement; without it
	// every session read and write goes straight to Postgres.
	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, running without cache", "error", err)
			cache = nil
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					logger.Warn("close redis", "error", err)
				}
			}()
		}
	}

	registry := jobs.NewRegistry()

	srv, err := server.New(cfg, db, cache, registry, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	// In-flight settlement jobs stop with the server; their transfers
	// resume from the stored status on the next deploy.
	registry.StopAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
