package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/database/dbtest"
)

func createUser(t *testing.T, db *sqlx.DB, utorid string, role user.Role) *user.User {
	t.Helper()
	u := &user.User{UTORid: utorid, Name: utorid, Email: utorid + "@mail.utoronto.ca", Role: role, Verified: true, PasswordHash: "x"}
	require.NoError(t, user.NewRepository(db).Create(context.Background(), u))
	return u
}

func TestPostgresAppendKeepsBalanceInSync(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := ledger.NewRepository(db)
	member := createUser(t, db, "member01", user.RoleMember)
	cashier := createUser(t, db, "cashier1", user.RoleCashier)

	txn, err := repo.Append(ctx, ledger.Entry{Kind: ledger.KindAward, Amount: 40, MemberID: member.ID, ActorID: cashier.ID, Note: "welcome"})
	require.NoError(t, err)
	assert.NotZero(t, txn.ID)
	assert.False(t, txn.CreatedAt.IsZero())

	_, err = repo.Append(ctx, ledger.Entry{Kind: ledger.KindAdjustment, Amount: -41, MemberID: member.ID, ActorID: cashier.ID})
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	_, err = repo.Append(ctx, ledger.Entry{Kind: ledger.KindAward, Amount: 1, MemberID: 999999, ActorID: cashier.ID})
	assert.ErrorIs(t, err, ledger.ErrMemberNotFound)

	points, err := repo.GetBalance(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 40, points)

	sum, err := repo.SumAmounts(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 40, sum)

	items, total, err := repo.ListByMember(ctx, member.ID, ledger.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "welcome", items[0].Note)
}

func TestPostgresConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := ledger.NewRepository(db)
	member := createUser(t, db, "member01", user.RoleMember)
	manager := createUser(t, db, "manager1", user.RoleManager)

	_, err := repo.Append(ctx, ledger.Entry{Kind: ledger.KindAward, Amount: 50, MemberID: member.ID, ActorID: manager.ID})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, ledger.Entry{Kind: ledger.KindAdjustment, Amount: -10, MemberID: member.ID, ActorID: manager.ID})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	points, err := repo.GetBalance(ctx, member.ID)
	require.NoError(t, err)
	assert.Zero(t, points)

	drift, err := repo.FindDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)
}
