package redemption_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/qrcode"
	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/store"
)

type fixture struct {
	mem     *store.MemoryStore
	ledger  *ledger.Service
	svc     *redemption.Service
	member  user.Actor
	cashier user.Actor
	manager user.Actor
}

func newFixture(t *testing.T, opening int64) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.New()

	u := &user.User{UTORid: "member01", Name: "Member", Email: "member01@mail.utoronto.ca", Role: user.RoleMember, Verified: true, PasswordHash: "x"}
	require.NoError(t, mem.Users().Create(ctx, u))

	ledgerSvc := ledger.NewService(mem.Ledger(), nil)
	f := &fixture{
		mem:     mem,
		ledger:  ledgerSvc,
		svc:     redemption.NewService(mem.Redemptions(), ledgerSvc, nil),
		member:  u.Actor(),
		cashier: user.Actor{ID: 100, Role: user.RoleCashier, Verified: true},
		manager: user.Actor{ID: 101, Role: user.RoleManager, Verified: true},
	}
	if opening > 0 {
		_, err := ledgerSvc.Award(ctx, f.cashier, u.ID, opening, "opening")
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	points, err := f.ledger.GetBalance(context.Background(), f.member.ID)
	require.NoError(t, err)
	return points
}

func TestCreateLeavesBalanceUntouched(t *testing.T) {
	f := newFixture(t, 100)

	req, err := f.svc.Create(context.Background(), f.member, 40, "  mug  ")
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusPending, req.Status)
	assert.Equal(t, f.member.ID, req.MemberID)
	assert.EqualValues(t, 40, req.Amount)
	assert.Equal(t, "mug", req.Remark)
	assert.Nil(t, req.TransactionID)
	assert.EqualValues(t, 100, f.balance(t))
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	unverified := f.member
	unverified.Verified = false
	_, err := f.svc.Create(ctx, unverified, 10, "")
	assert.ErrorIs(t, err, redemption.ErrNotVerified)

	_, err = f.svc.Create(ctx, f.member, 0, "")
	assert.ErrorIs(t, err, redemption.ErrInvalidAmount)

	_, err = f.svc.Create(ctx, f.member, 51, "")
	assert.ErrorIs(t, err, redemption.ErrInsufficientBalance)

	_, err = f.svc.Create(ctx, f.member, 10, strings.Repeat("x", redemption.MaxRemarkLength+1))
	assert.ErrorIs(t, err, redemption.ErrRemarkTooLong)

	_, err = f.svc.Create(ctx, f.member, 50, "")
	assert.NoError(t, err)
}

func TestProcessDebitsOnce(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.member, 30, "")
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, f.member, req.ID)
	assert.ErrorIs(t, err, redemption.ErrForbidden)

	txn, err := f.svc.Process(ctx, f.cashier, req.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindRedemption, txn.Kind)
	assert.EqualValues(t, -30, txn.Amount)
	assert.Equal(t, f.cashier.ID, txn.ActorID)
	require.NotNil(t, txn.RedemptionID)
	assert.Equal(t, req.ID, *txn.RedemptionID)
	assert.EqualValues(t, 70, f.balance(t))

	got, err := f.svc.Get(ctx, f.member, req.ID)
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusProcessed, got.Status)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, f.cashier.ID, *got.ProcessedBy)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, txn.ID, *got.TransactionID)

	_, err = f.svc.Process(ctx, f.manager, req.ID)
	assert.ErrorIs(t, err, redemption.ErrInvalidState)
	assert.EqualValues(t, 70, f.balance(t))

	_, err = f.svc.Process(ctx, f.cashier, 9999)
	assert.ErrorIs(t, err, redemption.ErrRequestNotFound)
}

func TestProcessChecksBalanceAgain(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.member, 80, "")
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.member, 80, "")
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, f.cashier, first.ID)
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, f.cashier, second.ID)
	assert.ErrorIs(t, err, redemption.ErrInsufficientBalance)

	got, err := f.svc.Get(ctx, f.member, second.ID)
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusPending, got.Status)
	assert.EqualValues(t, 20, f.balance(t))
}

func TestConcurrentProcessSucceedsOnce(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.member, 60, "")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		successes int32
		conflicts int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Process(ctx, f.cashier, req.ID)
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, redemption.ErrInvalidState):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes)
	assert.EqualValues(t, 19, conflicts)
	assert.EqualValues(t, 40, f.balance(t))

	items, total, err := f.ledger.History(ctx, f.member, f.member.ID, ledger.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, ledger.KindRedemption, items[1].Kind)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.member, 10, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.cashier, req.ID)
	assert.ErrorIs(t, err, redemption.ErrForbidden)

	cancelled, err := f.svc.Cancel(ctx, f.member, req.ID)
	require.NoError(t, err)
	assert.Equal(t, redemption.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = f.svc.Cancel(ctx, f.member, req.ID)
	assert.ErrorIs(t, err, redemption.ErrInvalidState)

	_, err = f.svc.Process(ctx, f.cashier, req.ID)
	assert.ErrorIs(t, err, redemption.ErrInvalidState)
	assert.EqualValues(t, 100, f.balance(t))

	other, err := f.svc.Create(ctx, f.member, 10, "")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.manager, other.ID)
	assert.NoError(t, err)
}

func TestListings(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.member, 10, "")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.member, 20, "")
	require.NoError(t, err)
	_, err = f.svc.Process(ctx, f.cashier, a.ID)
	require.NoError(t, err)

	mine, total, err := f.svc.ListMine(ctx, f.member, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)

	_, _, err = f.svc.ListMine(ctx, f.member, "done", 0, 0)
	assert.ErrorIs(t, err, redemption.ErrInvalidStatus)

	_, _, err = f.svc.ListForStaff(ctx, f.member, "", 0, 0)
	assert.ErrorIs(t, err, redemption.ErrForbidden)

	pending, total, err := f.svc.ListForStaff(ctx, f.cashier, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, pending, 1)
	assert.EqualValues(t, 20, pending[0].Amount)

	processed, _, err := f.svc.ListForStaff(ctx, f.manager, redemption.StatusProcessed, 0, 0)
	require.NoError(t, err)
	require.Len(t, processed, 1)
	assert.Equal(t, a.ID, processed[0].ID)
}

func TestQRPayloadRoundTrips(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.member, 25, "")
	require.NoError(t, err)

	stranger := user.Actor{ID: f.member.ID + 50, Role: user.RoleMember, Verified: true}
	_, err = f.svc.QRPayload(ctx, stranger, req.ID)
	assert.ErrorIs(t, err, redemption.ErrForbidden)

	text, err := f.svc.QRPayload(ctx, f.member, req.ID)
	require.NoError(t, err)
	p, err := qrcode.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, qrcode.RedemptionPayload{RequestID: req.ID, Amount: 25}, p)

	_, err = f.svc.Process(ctx, f.cashier, req.ID)
	require.NoError(t, err)
	_, err = f.svc.QRPayload(ctx, f.member, req.ID)
	assert.ErrorIs(t, err, redemption.ErrInvalidState)
}
