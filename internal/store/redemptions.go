package store

import (
	"context"
	"sort"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
)

type redemptionRepo struct{ s *MemoryStore }

func (r *redemptionRepo) Create(_ context.Context, req *redemption.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextRedemptionID++
	req.ID = r.s.nextRedemptionID
	req.Status = redemption.StatusPending
	req.CreatedAt = r.s.now()
	stored := *req
	r.s.redemptions[req.ID] = &stored
	return nil
}

func (r *redemptionRepo) GetByID(_ context.Context, id int64) (*redemption.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req, ok := r.s.redemptions[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, nil
}

func (r *redemptionRepo) List(_ context.Context, filter redemption.ListFilter) ([]*redemption.Request, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := make([]*redemption.Request, 0)
	for _, req := range r.s.redemptions {
		if filter.MemberID != nil && req.MemberID != *filter.MemberID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		cp := *req
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, filter.Limit, filter.Offset, 20), len(matched), nil
}

func (r *redemptionRepo) Process(_ context.Context, id, processorID int64, note string) (*redemption.Request, *ledger.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.redemptions[id]
	if !ok {
		return nil, nil, redemption.ErrRequestNotFound
	}
	if !req.IsPending() {
		return nil, nil, redemption.ErrInvalidState
	}

	// The debit goes first so a failure leaves the request untouched.
	txn, err := r.s.appendLocked(ledger.Entry{
		Kind:         ledger.KindRedemption,
		Amount:       -req.Amount,
		MemberID:     req.MemberID,
		ActorID:      processorID,
		Note:         note,
		RedemptionID: ptr(req.ID),
	})
	if err != nil {
		return nil, nil, err
	}

	req.Status = redemption.StatusProcessed
	req.ProcessedAt = ptr(txn.CreatedAt)
	req.ProcessedBy = ptr(processorID)
	req.TransactionID = ptr(txn.ID)

	cp := *req
	return &cp, txn, nil
}

func (r *redemptionRepo) Cancel(_ context.Context, id int64) (*redemption.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.redemptions[id]
	if !ok {
		return nil, redemption.ErrRequestNotFound
	}
	if !req.IsPending() {
		return nil, redemption.ErrInvalidState
	}
	req.Status = redemption.StatusCancelled
	req.CancelledAt = ptr(r.s.now())

	cp := *req
	return &cp, nil
}
