package notification

import "time"

// Kinds of banners raised by the ledger and redemption services.
const (
	KindPointsAwarded       = "points_awarded"
	KindPointsAdjusted      = "points_adjusted"
	KindRedemptionCreated   = "redemption_created"
	KindRedemptionProcessed = "redemption_processed"
)

// Banner is a short-lived message shown to one user after a change that
// affects them. Banners are not persisted.
type Banner struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the banner should no longer be shown at now.
func (b Banner) Expired(now time.Time) bool {
	return !now.Before(b.ExpiresAt)
}
