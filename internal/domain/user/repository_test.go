package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/database/dbtest"
)

func newMember(utorid, email string) *user.User {
	return &user.User{UTORid: utorid, Name: utorid, Email: email, Role: user.RoleMember, PasswordHash: "x"}
}

func TestPostgresCreateMapsUniqueViolations(t *testing.T) {
	repo := user.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	u := newMember("member01", "member01@mail.utoronto.ca")
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Zero(t, u.Points)

	assert.ErrorIs(t, repo.Create(ctx, newMember("member01", "other@mail.utoronto.ca")), user.ErrUTORidTaken)
	assert.ErrorIs(t, repo.Create(ctx, newMember("member02", "member01@mail.utoronto.ca")), user.ErrEmailTaken)
}

func TestPostgresFlagsAndLookups(t *testing.T) {
	repo := user.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	u := newMember("member01", "member01@mail.utoronto.ca")
	require.NoError(t, repo.Create(ctx, u))

	missing, err := repo.GetByUTORid(ctx, "nobody01")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.UpdateFlags(ctx, u.ID, user.Flags{})
	assert.ErrorIs(t, err, user.ErrNothingToUpdate)

	verified := true
	role := user.RoleCashier
	updated, err := repo.UpdateFlags(ctx, u.ID, user.Flags{Verified: &verified, Role: &role})
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.Equal(t, user.RoleCashier, updated.Role)

	_, err = repo.UpdateFlags(ctx, 999999, user.Flags{Verified: &verified})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	require.NoError(t, repo.UpdateLastLogin(ctx, u.ID, time.Now()))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	items, total, err := repo.List(ctx, user.ListFilter{Role: user.RoleCashier})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, u.ID, items[0].ID)
}
