package store

import (
	"context"
	"sort"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
)

type ledgerRepo struct{ s *MemoryStore }

func (r *ledgerRepo) Append(_ context.Context, entry ledger.Entry) (*ledger.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.appendLocked(entry)
}

// appendLocked applies entry to the member's balance and log. The caller
// holds s.mu.
func (s *MemoryStore) appendLocked(entry ledger.Entry) (*ledger.Transaction, error) {
	if !entry.Kind.IsValid() {
		return nil, ledger.ErrInvalidKind
	}
	member, ok := s.users[entry.MemberID]
	if !ok {
		return nil, ledger.ErrMemberNotFound
	}
	points, err := ledger.ApplyAmount(member.Points, entry.Amount)
	if err != nil {
		return nil, err
	}

	s.nextTransactionID++
	txn := &ledger.Transaction{
		ID:           s.nextTransactionID,
		Kind:         entry.Kind,
		Amount:       entry.Amount,
		MemberID:     entry.MemberID,
		ActorID:      entry.ActorID,
		Note:         entry.Note,
		RedemptionID: entry.RedemptionID,
		CreatedAt:    s.now(),
	}
	member.Points = points
	member.UpdatedAt = txn.CreatedAt
	s.transactions = append(s.transactions, txn)

	cp := *txn
	return &cp, nil
}

func (r *ledgerRepo) GetBalance(_ context.Context, memberID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	member, ok := r.s.users[memberID]
	if !ok {
		return 0, ledger.ErrMemberNotFound
	}
	return member.Points, nil
}

func (r *ledgerRepo) SumAmounts(_ context.Context, memberID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, t := range r.s.transactions {
		if t.MemberID == memberID {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (r *ledgerRepo) ListByMember(ctx context.Context, memberID int64, page ledger.Pagination) ([]*ledger.Transaction, int, error) {
	id := memberID
	return r.Search(ctx, ledger.SearchFilter{MemberID: &id, Pagination: page})
}

func (r *ledgerRepo) Search(_ context.Context, filter ledger.SearchFilter) ([]*ledger.Transaction, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := make([]*ledger.Transaction, 0)
	for _, t := range r.s.transactions {
		if filter.MemberID != nil && t.MemberID != *filter.MemberID {
			continue
		}
		if filter.ActorID != nil && t.ActorID != *filter.ActorID {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.CreatedAt.After(*filter.To) {
			continue
		}
		cp := *t
		matched = append(matched, &cp)
	}
	return window(matched, filter.Limit, filter.Offset, 50), len(matched), nil
}

func (r *ledgerRepo) FindDrift(_ context.Context) ([]ledger.Drift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sums := make(map[int64]int64, len(r.s.users))
	for _, t := range r.s.transactions {
		sums[t.MemberID] += t.Amount
	}
	drift := make([]ledger.Drift, 0)
	for id, u := range r.s.users {
		if u.Points != sums[id] {
			drift = append(drift, ledger.Drift{MemberID: id, Cached: u.Points, Computed: sums[id]})
		}
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].MemberID < drift[j].MemberID })
	return drift, nil
}

// SetPointsUnchecked overwrites a cached balance without touching the log.
// It exists so audits can be exercised against drifted state.
func (s *MemoryStore) SetPointsUnchecked(memberID, points int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[memberID]; ok {
		u.Points = points
	}
}
