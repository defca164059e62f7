package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/config"
	"github.com/loyalprogram/loyalty-api/internal/domain/notification"
	"github.com/loyalprogram/loyalty-api/internal/pkg/database"
	"github.com/loyalprogram/loyalty-api/internal/pkg/logger"
	"github.com/loyalprogram/loyalty-api/internal/pkg/tracing"
)

func main() {
	cfg := config.Load()
	closer := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	})
	defer closer.Close()

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Bool("memory_store", cfg.UseMemoryStore).
		Msg("Starting loyalty API")

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: "loyalty-api",
		Environment: cfg.Env,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up tracing")
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer b.close()

	redisClient, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	exports, err := exportStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create export storage")
	}

	a := newApp(cfg, b, redisClient, exports)

	go a.hub.Run()
	sweeper := notification.NewSweeper(a.hub, cfg.BannerSweepInterval)
	sweeper.Start()

	limiterDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-limiterDone:
				return
			case <-ticker.C:
				a.limiter.Sweep()
			}
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	close(limiterDone)
	sweeper.Stop()
	if err := a.hub.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close banner hub")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to flush traces")
	}

	log.Info().Msg("Server exited properly")
}
