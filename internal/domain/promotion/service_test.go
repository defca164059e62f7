package promotion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalprogram/loyalty-api/internal/domain/promotion"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/store"
)

var (
	manager = user.Actor{ID: 1, Role: user.RoleManager, Verified: true}
	cashier = user.Actor{ID: 2, Role: user.RoleCashier, Verified: true}
)

func create(t *testing.T, svc *promotion.Service, name string, start, end time.Time) *promotion.Promotion {
	t.Helper()
	p := &promotion.Promotion{Name: name, StartTime: start, EndTime: end}
	require.NoError(t, svc.Create(context.Background(), manager, p))
	return p
}

func TestCreateValidation(t *testing.T) {
	svc := promotion.NewService(store.New().Promotions())
	ctx := context.Background()
	now := time.Now()

	err := svc.Create(ctx, cashier, &promotion.Promotion{Name: "x", StartTime: now, EndTime: now.Add(time.Hour)})
	assert.ErrorIs(t, err, promotion.ErrForbidden)

	err = svc.Create(ctx, manager, &promotion.Promotion{Name: "x", StartTime: now, EndTime: now})
	assert.ErrorIs(t, err, promotion.ErrInvalidWindow)

	p := create(t, svc, "  Double points  ", now, now.Add(time.Hour))
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Double points", p.Name)
}

func TestListActiveOnly(t *testing.T) {
	svc := promotion.NewService(store.New().Promotions())
	ctx := context.Background()
	now := time.Now()

	create(t, svc, "ended", now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	running := create(t, svc, "running", now.Add(-time.Hour), now.Add(time.Hour))
	future := create(t, svc, "future", now.Add(24*time.Hour), now.Add(48*time.Hour))

	all, total, err := svc.List(ctx, false, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	active, total, err := svc.List(ctx, true, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, active, 2)
	assert.Equal(t, running.ID, active[0].ID)
	assert.Equal(t, future.ID, active[1].ID)
	assert.True(t, active[1].IsActive(now))
}

func TestUpdateAndDelete(t *testing.T) {
	svc := promotion.NewService(store.New().Promotions())
	ctx := context.Background()
	now := time.Now()
	p := create(t, svc, "spring", now, now.Add(time.Hour))

	_, err := svc.Update(ctx, cashier, p.ID, promotion.Patch{})
	assert.ErrorIs(t, err, promotion.ErrForbidden)

	_, err = svc.Update(ctx, manager, p.ID, promotion.Patch{})
	assert.ErrorIs(t, err, promotion.ErrNothingToUpdate)

	early := now.Add(-time.Hour)
	_, err = svc.Update(ctx, manager, p.ID, promotion.Patch{EndTime: &early})
	assert.ErrorIs(t, err, promotion.ErrInvalidWindow)

	name := "summer"
	updated, err := svc.Update(ctx, manager, p.ID, promotion.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "summer", updated.Name)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "summer", got.Name)

	_, err = svc.Update(ctx, manager, 999, promotion.Patch{Name: &name})
	assert.ErrorIs(t, err, promotion.ErrPromotionNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, cashier, p.ID), promotion.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, manager, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, manager, p.ID), promotion.ErrPromotionNotFound)

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, promotion.ErrPromotionNotFound)
}
