package store

import (
	"context"
	"time"

	"github.com/loyalprogram/loyalty-api/internal/domain/dashboard"
	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
)

// Stats implements dashboard.Provider.
func (s *MemoryStore) Stats(_ context.Context, now time.Time) (*dashboard.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &dashboard.Stats{
		TotalUsers:        len(s.users),
		TotalTransactions: len(s.transactions),
		TotalEvents:       len(s.events),
		TotalPromotions:   len(s.promotions),
	}
	for _, e := range s.events {
		if e.IsUpcoming(now) {
			stats.UpcomingEvents++
		}
	}
	for _, p := range s.promotions {
		if p.IsActive(now) {
			stats.ActivePromotions++
		}
	}
	for _, r := range s.redemptions {
		if r.Status == redemption.StatusPending {
			stats.PendingRedemptions++
		}
	}
	return stats, nil
}
