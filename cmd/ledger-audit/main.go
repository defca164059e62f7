package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/config"
	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/pkg/database"
	"github.com/loyalprogram/loyalty-api/internal/pkg/logger"
)

// auditor is the slice of ledger.Service the worker drives.
type auditor interface {
	Reconcile(ctx context.Context) ([]ledger.Drift, error)
}

func main() {
	cfg := config.Load()
	closer := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, LogFile: cfg.LogFile})
	defer closer.Close()

	log.Info().Dur("interval", cfg.AuditInterval).Msg("Starting ledger-audit")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	svc := ledger.NewService(ledger.NewRepository(db), nil)

	if cfg.AuditInterval <= 0 {
		drift, err := audit(ctx, svc)
		if err != nil {
			log.Fatal().Err(err).Msg("Ledger audit failed")
		}
		if drift > 0 {
			database.ClosePostgres(db)
			os.Exit(1)
		}
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	run(ctx, svc, cfg.AuditInterval)
	log.Info().Msg("ledger-audit stopped")
}

// run audits immediately and then on every tick until ctx is done.
func run(ctx context.Context, a auditor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := audit(ctx, a); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Ledger audit failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// audit runs one reconciliation and returns the number of drifted members.
func audit(ctx context.Context, a auditor) (int, error) {
	start := time.Now()
	drift, err := a.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().
		Int("drifted_members", len(drift)).
		Dur("elapsed", time.Since(start)).
		Msg("Ledger audit finished")
	return len(drift), nil
}
