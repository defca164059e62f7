package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Stats represents manager dashboard statistics
type Stats struct {
	TotalUsers         int `json:"total_users"`
	TotalTransactions  int `json:"total_transactions"`
	TotalEvents        int `json:"total_events"`
	UpcomingEvents     int `json:"upcoming_events"`
	TotalPromotions    int `json:"total_promotions"`
	ActivePromotions   int `json:"active_promotions"`
	PendingRedemptions int `json:"pending_redemptions"`
}

// Provider aggregates program-wide counts as of now.
type Provider interface {
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}

// Service computes dashboard statistics from Postgres
type Service struct {
	db *sqlx.DB
}

// NewService creates dashboard service
func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		dst   *int
		query string
		args  []interface{}
	}{
		{&stats.TotalUsers, `SELECT COUNT(*) FROM users`, nil},
		{&stats.TotalTransactions, `SELECT COUNT(*) FROM transactions`, nil},
		{&stats.TotalEvents, `SELECT COUNT(*) FROM events`, nil},
		{&stats.UpcomingEvents, `SELECT COUNT(*) FROM events WHERE start_time > $1`, []interface{}{now}},
		{&stats.TotalPromotions, `SELECT COUNT(*) FROM promotions`, nil},
		{&stats.ActivePromotions, `SELECT COUNT(*) FROM promotions WHERE end_time > $1`, []interface{}{now}},
		{&stats.PendingRedemptions, `SELECT COUNT(*) FROM redemption_requests WHERE status = 'pending'`, nil},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dst, c.query, c.args...); err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}
	}
	return stats, nil
}
