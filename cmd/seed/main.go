package main

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/config"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/database"
	"github.com/loyalprogram/loyalty-api/internal/pkg/logger"
	"github.com/loyalprogram/loyalty-api/internal/pkg/password"
)

var errPasswordRequired = errors.New("SEED_PASSWORD is required")

// account describes the bootstrap manager.
type account struct {
	UTORid   string
	Password string
	Name     string
	Email    string
}

func main() {
	cfg := config.Load()
	closer := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})
	defer closer.Close()

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	u, created, err := seedManager(ctx, user.NewRepository(db), account{
		UTORid:   cfg.SeedUTORid,
		Password: cfg.SeedPassword,
		Name:     cfg.SeedName,
		Email:    cfg.SeedEmail,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed manager")
	}

	log.Info().
		Int64("user_id", u.ID).
		Str("utorid", u.UTORid).
		Bool("created", created).
		Msg("Manager account ready")
}

// seedManager creates the manager account, or promotes and re-keys an
// existing user with the same utorid. Points are never touched.
func seedManager(ctx context.Context, users user.Repository, acc account) (*user.User, bool, error) {
	if acc.Password == "" {
		return nil, false, errPasswordRequired
	}
	utorid := strings.ToLower(strings.TrimSpace(acc.UTORid))

	hash, err := password.Hash(acc.Password)
	if err != nil {
		return nil, false, err
	}

	existing, err := users.GetByUTORid(ctx, utorid)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		u := &user.User{
			UTORid:       utorid,
			Name:         acc.Name,
			Email:        strings.ToLower(strings.TrimSpace(acc.Email)),
			Role:         user.RoleManager,
			Verified:     true,
			PasswordHash: hash,
		}
		if err := users.Create(ctx, u); err != nil {
			return nil, false, err
		}
		return u, true, nil
	}

	role := user.RoleManager
	verified := true
	u, err := users.UpdateFlags(ctx, existing.ID, user.Flags{Role: &role, Verified: &verified})
	if err != nil {
		return nil, false, err
	}
	if err := users.UpdatePassword(ctx, existing.ID, hash); err != nil {
		return nil, false, err
	}
	return u, false, nil
}
