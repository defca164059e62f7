// Package store holds an in-memory implementation of the repositories,
// used by tests and by local runs without Postgres. One mutex guards
// all state, so each repository call is atomic.
package store

import (
	"sync"
	"time"

	"github.com/loyalprogram/loyalty-api/internal/domain/event"
	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/promotion"
	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
)

// MemoryStore holds all program state in memory.
type MemoryStore struct {
	mu sync.Mutex

	users        map[int64]*user.User
	transactions []*ledger.Transaction
	redemptions  map[int64]*redemption.Request
	promotions   map[int64]*promotion.Promotion
	events       map[int64]*event.Event

	nextUserID        int64
	nextTransactionID int64
	nextRedemptionID  int64
	nextPromotionID   int64
	nextEventID       int64

	now func() time.Time
}

// New creates a new MemoryStore with empty state.
func New() *MemoryStore {
	s := &MemoryStore{now: time.Now}
	s.Reset()
	return s
}

// SetClock replaces the store's time source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Reset clears all state.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int64]*user.User)
	s.transactions = nil
	s.redemptions = make(map[int64]*redemption.Request)
	s.promotions = make(map[int64]*promotion.Promotion)
	s.events = make(map[int64]*event.Event)
	s.nextUserID, s.nextTransactionID, s.nextRedemptionID = 0, 0, 0
	s.nextPromotionID, s.nextEventID = 0, 0
}

func (s *MemoryStore) Users() user.Repository             { return &userRepo{s} }
func (s *MemoryStore) Ledger() ledger.Repository          { return &ledgerRepo{s} }
func (s *MemoryStore) Redemptions() redemption.Repository { return &redemptionRepo{s} }
func (s *MemoryStore) Promotions() promotion.Repository   { return &promotionRepo{s} }
func (s *MemoryStore) Events() event.Repository           { return &eventRepo{s} }

func window[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func ptr[T any](v T) *T { return &v }
