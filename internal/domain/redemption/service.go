package redemption

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/qrcode"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/metrics"
	"github.com/loyalprogram/loyalty-api/internal/pkg/tracing"
)

// BalanceReader reads a member's current points.
type BalanceReader interface {
	GetBalance(ctx context.Context, memberID int64) (int64, error)
}

// Notifier receives a short message for a member after a state change.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind, message string)
}

type Service struct {
	repo     Repository
	balances BalanceReader
	notifier Notifier
}

func NewService(repo Repository, balances BalanceReader, notifier Notifier) *Service {
	return &Service{repo: repo, balances: balances, notifier: notifier}
}

// Create opens a pending request for the acting member. The balance check
// is a point-in-time read; Process checks again under lock.
func (s *Service) Create(ctx context.Context, actor user.Actor, amount int64, remark string) (*Request, error) {
	ctx, span := tracing.Start(ctx, "redemption.Create")
	defer span.End()
	span.SetAttributes(attribute.Int64("member.id", actor.ID), attribute.Int64("points", amount))

	if !actor.Verified {
		return nil, ErrNotVerified
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	remark = strings.TrimSpace(remark)
	if utf8.RuneCountInString(remark) > MaxRemarkLength {
		return nil, ErrRemarkTooLong
	}

	balance, err := s.balances.GetBalance(ctx, actor.ID)
	if err != nil {
		return nil, tracing.Fail(span, err)
	}
	if amount > balance {
		return nil, ErrInsufficientBalance
	}

	req := &Request{MemberID: actor.ID, Amount: amount, Remark: remark, Status: StatusPending}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, tracing.Fail(span, err)
	}

	metrics.Loyalty().ObserveRedemption(string(StatusPending))
	log.Info().Int64("request_id", req.ID).Int64("member_id", req.MemberID).Int64("amount", req.Amount).Msg("Redemption requested")
	s.notify(ctx, req.MemberID, "redemption_created", fmt.Sprintf("Redemption request #%d for %d points created", req.ID, req.Amount))
	return req, nil
}

// Process debits the member and marks the request processed. Only the
// first processor succeeds.
func (s *Service) Process(ctx context.Context, actor user.Actor, requestID int64) (*ledger.Transaction, error) {
	ctx, span := tracing.Start(ctx, "redemption.Process")
	defer span.End()
	span.SetAttributes(attribute.Int64("redemption.id", requestID))

	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	req, txn, err := s.repo.Process(ctx, requestID, actor.ID, fmt.Sprintf("Redemption #%d", requestID))
	if err != nil {
		return nil, tracing.Fail(span, err)
	}

	metrics.Loyalty().ObserveRedemption(string(StatusProcessed))
	metrics.Loyalty().ObserveTransaction(string(txn.Kind), txn.Amount)
	log.Info().
		Int64("request_id", req.ID).
		Int64("member_id", req.MemberID).
		Int64("processed_by", actor.ID).
		Int64("transaction_id", txn.ID).
		Msg("Redemption processed")
	s.notify(ctx, req.MemberID, "redemption_processed", fmt.Sprintf("Your redemption of %d points was processed", req.Amount))
	return txn, nil
}

// Cancel withdraws a pending request. Owners and managers may cancel.
func (s *Service) Cancel(ctx context.Context, actor user.Actor, requestID int64) (*Request, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.MemberID != actor.ID && !actor.IsManager() {
		return nil, ErrForbidden
	}
	if !req.IsPending() {
		return nil, ErrInvalidState
	}

	req, err = s.repo.Cancel(ctx, requestID)
	if err != nil {
		return nil, err
	}

	metrics.Loyalty().ObserveRedemption(string(StatusCancelled))
	log.Info().Int64("request_id", req.ID).Int64("cancelled_by", actor.ID).Msg("Redemption cancelled")
	return req, nil
}

// Get returns a request visible to its owner and to staff.
func (s *Service) Get(ctx context.Context, actor user.Actor, requestID int64) (*Request, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.MemberID != actor.ID && !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return req, nil
}

// ListMine lists the acting member's requests.
func (s *Service) ListMine(ctx context.Context, actor user.Actor, status Status, limit, offset int) ([]*Request, int, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}
	id := actor.ID
	return s.repo.List(ctx, ListFilter{MemberID: &id, Status: status, Limit: limit, Offset: offset})
}

// ListForStaff lists requests across members, pending ones by default.
func (s *Service) ListForStaff(ctx context.Context, actor user.Actor, status Status, limit, offset int) ([]*Request, int, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrForbidden
	}
	if status == "" {
		status = StatusPending
	}
	if !status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.List(ctx, ListFilter{Status: status, Limit: limit, Offset: offset})
}

// QRPayload returns the QR text staff scan to process a pending request.
func (s *Service) QRPayload(ctx context.Context, actor user.Actor, requestID int64) (string, error) {
	req, err := s.Get(ctx, actor, requestID)
	if err != nil {
		return "", err
	}
	if !req.IsPending() {
		return "", ErrInvalidState
	}
	return qrcode.Encode(qrcode.ForRedemption(req.ID, req.Amount)), nil
}

func (s *Service) load(ctx context.Context, requestID int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

func (s *Service) notify(ctx context.Context, memberID int64, kind, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, memberID, kind, message)
}
