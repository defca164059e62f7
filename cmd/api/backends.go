package main

import (
	"context"
	"fmt"

	"github.com/loyalprogram/loyalty-api/internal/config"
	"github.com/loyalprogram/loyalty-api/internal/domain/dashboard"
	"github.com/loyalprogram/loyalty-api/internal/domain/event"
	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/promotion"
	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/database"
	"github.com/loyalprogram/loyalty-api/internal/store"
)

// backends bundles the repositories every service is built on.
type backends struct {
	users       user.Repository
	ledger      ledger.Repository
	redemptions redemption.Repository
	promotions  promotion.Repository
	events      event.Repository
	stats       dashboard.Provider
	close       func()
}

func memoryBackends(mem *store.MemoryStore) *backends {
	return &backends{
		users:       mem.Users(),
		ledger:      mem.Ledger(),
		redemptions: mem.Redemptions(),
		promotions:  mem.Promotions(),
		events:      mem.Events(),
		stats:       mem,
		close:       func() {},
	}
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	if cfg.UseMemoryStore {
		return memoryBackends(store.New()), nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.PoolConfig{})
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			database.ClosePostgres(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	ledgerRepo := ledger.NewRepository(db)
	return &backends{
		users:       user.NewRepository(db),
		ledger:      ledgerRepo,
		redemptions: redemption.NewRepository(db, ledgerRepo),
		promotions:  promotion.NewRepository(db),
		events:      event.NewRepository(db),
		stats:       dashboard.NewService(db),
		close:       func() { database.ClosePostgres(db) },
	}, nil
}
