package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/logger"
	"github.com/loyalprogram/loyalty-api/internal/pkg/metrics"
	"github.com/loyalprogram/loyalty-api/internal/pkg/tracing"
)

// Notifier receives a short message for a member after a balance change
// has been committed.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind, message string)
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// GetBalance returns the member's current points.
func (s *Service) GetBalance(ctx context.Context, memberID int64) (int64, error) {
	return s.repo.GetBalance(ctx, memberID)
}

// Award credits amount points to memberID on behalf of a cashier or manager.
func (s *Service) Award(ctx context.Context, actor user.Actor, memberID, amount int64, note string) (*Transaction, error) {
	ctx, span := tracing.Start(ctx, "ledger.Award")
	defer span.End()
	span.SetAttributes(attribute.Int64("member.id", memberID), attribute.Int64("points", amount))

	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	note, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}

	txn, err := s.repo.Append(ctx, Entry{
		Kind:     KindAward,
		Amount:   amount,
		MemberID: memberID,
		ActorID:  actor.ID,
		Note:     note,
	})
	if err != nil {
		return nil, tracing.Fail(span, err)
	}

	s.committed(ctx, txn)
	s.notify(ctx, memberID, "points_awarded", fmt.Sprintf("You received %d points", amount))
	return txn, nil
}

// Adjust applies a signed manager correction. Negative adjustments may not
// overdraw the member.
func (s *Service) Adjust(ctx context.Context, actor user.Actor, memberID, amount int64, note string) (*Transaction, error) {
	ctx, span := tracing.Start(ctx, "ledger.Adjust")
	defer span.End()

	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	note, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}

	txn, err := s.repo.Append(ctx, Entry{
		Kind:     KindAdjustment,
		Amount:   amount,
		MemberID: memberID,
		ActorID:  actor.ID,
		Note:     note,
	})
	if err != nil {
		return nil, tracing.Fail(span, err)
	}

	s.committed(ctx, txn)
	s.notify(ctx, memberID, "points_adjusted", fmt.Sprintf("Your balance was adjusted by %+d points", amount))
	return txn, nil
}

// History lists a member's transactions in creation order. Members may only
// read their own history.
func (s *Service) History(ctx context.Context, actor user.Actor, memberID int64, page Pagination) ([]*Transaction, int, error) {
	if actor.ID != memberID && !actor.IsStaff() {
		return nil, 0, ErrForbidden
	}
	if _, err := s.repo.GetBalance(ctx, memberID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByMember(ctx, memberID, page)
}

// Search lists transactions across members for managers.
func (s *Service) Search(ctx context.Context, actor user.Actor, filter SearchFilter) ([]*Transaction, int, error) {
	if !actor.IsManager() {
		return nil, 0, ErrForbidden
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, 0, ErrInvalidKind
	}
	return s.repo.Search(ctx, filter)
}

// Balance returns the cached balance next to the recomputed sum.
func (s *Service) Balance(ctx context.Context, actor user.Actor, memberID int64) (*Balance, error) {
	if actor.ID != memberID && !actor.IsStaff() {
		return nil, ErrForbidden
	}
	points, err := s.repo.GetBalance(ctx, memberID)
	if err != nil {
		return nil, err
	}
	sum, err := s.repo.SumAmounts(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &Balance{MemberID: memberID, Points: points, Computed: sum, Consistent: points == sum}, nil
}

// Reconcile reports every member whose cached balance drifted from the log.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	drift, err := s.repo.FindDrift(ctx)
	if err != nil {
		return nil, err
	}
	metrics.Loyalty().SetLedgerDrift(len(drift))
	for _, d := range drift {
		log.Warn().
			Int64("member_id", d.MemberID).
			Int64("cached", d.Cached).
			Int64("computed", d.Computed).
			Msg("Ledger drift detected")
	}
	return drift, nil
}

func (s *Service) committed(ctx context.Context, txn *Transaction) {
	metrics.Loyalty().ObserveTransaction(string(txn.Kind), txn.Amount)
	logger.FromContext(ctx).Info().
		Int64("transaction_id", txn.ID).
		Str("kind", string(txn.Kind)).
		Int64("member_id", txn.MemberID).
		Int64("actor_id", txn.ActorID).
		Int64("amount", txn.Amount).
		Msg("Ledger transaction appended")
}

func (s *Service) notify(ctx context.Context, memberID int64, kind, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, memberID, kind, message)
}

func normalizeNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return "", ErrNoteTooLong
	}
	return note, nil
}
