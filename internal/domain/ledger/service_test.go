package ledger_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/storage"
	"github.com/loyalprogram/loyalty-api/internal/store"
)

type notice struct {
	userID int64
	kind   string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, kind, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{userID: userID, kind: kind})
}

type fixture struct {
	mem      *store.MemoryStore
	svc      *ledger.Service
	notifier *recordingNotifier
	member   *user.User
	cashier  user.Actor
	manager  user.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.New()
	member := &user.User{UTORid: "member01", Name: "Member", Email: "member01@mail.utoronto.ca", Role: user.RoleMember, Verified: true, PasswordHash: "x"}
	require.NoError(t, mem.Users().Create(context.Background(), member))

	n := &recordingNotifier{}
	return &fixture{
		mem:      mem,
		svc:      ledger.NewService(mem.Ledger(), n),
		notifier: n,
		member:   member,
		cashier:  user.Actor{ID: 100, Role: user.RoleCashier, Verified: true},
		manager:  user.Actor{ID: 101, Role: user.RoleManager, Verified: true},
	}
}

func TestAwardCreditsMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Award(ctx, f.cashier, f.member.ID, 100, "  welcome  ")
	require.NoError(t, err)
	assert.Equal(t, ledger.KindAward, txn.Kind)
	assert.EqualValues(t, 100, txn.Amount)
	assert.Equal(t, f.member.ID, txn.MemberID)
	assert.Equal(t, f.cashier.ID, txn.ActorID)
	assert.Equal(t, "welcome", txn.Note)
	assert.Nil(t, txn.RedemptionID)

	points, err := f.svc.GetBalance(ctx, f.member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, points)

	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, notice{userID: f.member.ID, kind: "points_awarded"}, f.notifier.notices[0])
}

func TestAwardRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	memberActor := f.member.Actor()

	_, err := f.svc.Award(ctx, memberActor, f.member.ID, 10, "")
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	for _, amount := range []int64{0, -5} {
		_, err = f.svc.Award(ctx, f.cashier, f.member.ID, amount, "")
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	}

	_, err = f.svc.Award(ctx, f.cashier, 9999, 10, "")
	assert.ErrorIs(t, err, ledger.ErrMemberNotFound)

	_, err = f.svc.Award(ctx, f.cashier, f.member.ID, 10, strings.Repeat("é", ledger.MaxNoteLength+1))
	assert.ErrorIs(t, err, ledger.ErrNoteTooLong)

	_, err = f.svc.Award(ctx, f.cashier, f.member.ID, 10, strings.Repeat("é", ledger.MaxNoteLength))
	assert.NoError(t, err)

	points, err := f.svc.GetBalance(ctx, f.member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, points)
	assert.Len(t, f.notifier.notices, 1)
}

func TestAdjustIsSignedAndManagerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Adjust(ctx, f.cashier, f.member.ID, 5, "")
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	_, err = f.svc.Adjust(ctx, f.manager, f.member.ID, 0, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = f.svc.Adjust(ctx, f.manager, f.member.ID, 50, "correction")
	require.NoError(t, err)

	txn, err := f.svc.Adjust(ctx, f.manager, f.member.ID, -20, "correction")
	require.NoError(t, err)
	assert.Equal(t, ledger.KindAdjustment, txn.Kind)
	assert.EqualValues(t, -20, txn.Amount)

	_, err = f.svc.Adjust(ctx, f.manager, f.member.ID, -31, "")
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	bal, err := f.svc.Balance(ctx, f.member.Actor(), f.member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 30, bal.Points)
	assert.EqualValues(t, 30, bal.Computed)
	assert.True(t, bal.Consistent)
}

func TestHistoryVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, amount := range []int64{10, 20, 30} {
		_, err := f.svc.Award(ctx, f.cashier, f.member.ID, amount, "")
		require.NoError(t, err)
	}

	items, total, err := f.svc.History(ctx, f.member.Actor(), f.member.ID, ledger.Pagination{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.EqualValues(t, 10, items[0].Amount)
	assert.EqualValues(t, 20, items[1].Amount)

	stranger := user.Actor{ID: f.member.ID + 1, Role: user.RoleMember}
	_, _, err = f.svc.History(ctx, stranger, f.member.ID, ledger.Pagination{})
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	_, err = f.svc.Balance(ctx, stranger, f.member.ID)
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	_, _, err = f.svc.History(ctx, f.cashier, 9999, ledger.Pagination{})
	assert.ErrorIs(t, err, ledger.ErrMemberNotFound)
}

func TestSearchFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Award(ctx, f.cashier, f.member.ID, 40, "")
	require.NoError(t, err)
	_, err = f.svc.Adjust(ctx, f.manager, f.member.ID, -5, "")
	require.NoError(t, err)

	_, _, err = f.svc.Search(ctx, f.cashier, ledger.SearchFilter{})
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	_, _, err = f.svc.Search(ctx, f.manager, ledger.SearchFilter{Kind: "bogus"})
	assert.ErrorIs(t, err, ledger.ErrInvalidKind)

	items, total, err := f.svc.Search(ctx, f.manager, ledger.SearchFilter{Kind: ledger.KindAdjustment})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.EqualValues(t, -5, items[0].Amount)

	actorID := f.cashier.ID
	_, total, err = f.svc.Search(ctx, f.manager, ledger.SearchFilter{ActorID: &actorID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestConcurrentAwardsKeepBalanceConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Award(ctx, f.cashier, f.member.ID, 2, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bal, err := f.svc.Balance(ctx, f.manager, f.member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, bal.Points)
	assert.True(t, bal.Consistent)
}

func TestReconcileFindsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Award(ctx, f.cashier, f.member.ID, 10, "")
	require.NoError(t, err)

	drift, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	f.mem.SetPointsUnchecked(f.member.ID, 7)
	drift, err = f.svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, ledger.Drift{MemberID: f.member.ID, Cached: 7, Computed: 10}, drift[0])
}

func TestExportWritesCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := t.TempDir()
	st, err := storage.NewLocalStorage(dir, "http://localhost/exports")
	require.NoError(t, err)
	exporter := ledger.NewExporter(f.mem.Ledger(), st)

	_, err = f.svc.Award(ctx, f.cashier, f.member.ID, 15, "coffee, large")
	require.NoError(t, err)

	_, err = exporter.Export(ctx, f.cashier, ledger.SearchFilter{})
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	res, err := exporter.Export(ctx, f.manager, ledger.SearchFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.True(t, strings.HasPrefix(res.Key, "ledger/"))
	assert.Equal(t, "http://localhost/exports/"+res.Key, res.URL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,created_at,kind,amount,member_id,actor_id,redemption_id,note", lines[0])
	assert.Contains(t, lines[1], `award,15,`)
	assert.Contains(t, lines[1], `"coffee, large"`)
}
