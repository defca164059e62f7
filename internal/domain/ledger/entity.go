package ledger

import (
	"math"
	"time"
)

// Kind classifies a ledger transaction.
type Kind string

const (
	KindAward      Kind = "award"
	KindRedemption Kind = "redemption"
	KindAdjustment Kind = "adjustment"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindAward, KindRedemption, KindAdjustment:
		return true
	}
	return false
}

// MaxNoteLength bounds transaction notes, in characters.
const MaxNoteLength = 200

// Transaction is an immutable ledger row. For every member the cached
// points equal the sum of Amount over that member's transactions.
type Transaction struct {
	ID           int64     `db:"id" json:"id"`
	Kind         Kind      `db:"kind" json:"kind"`
	Amount       int64     `db:"amount" json:"amount"`
	MemberID     int64     `db:"member_id" json:"member_id"`
	ActorID      int64     `db:"actor_id" json:"actor_id"`
	Note         string    `db:"note" json:"note,omitempty"`
	RedemptionID *int64    `db:"redemption_id" json:"redemption_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Entry is a transaction waiting to be appended.
type Entry struct {
	Kind         Kind
	Amount       int64
	MemberID     int64
	ActorID      int64
	Note         string
	RedemptionID *int64
}

// Pagination is an offset window over a listing.
type Pagination struct {
	Limit  int
	Offset int
}

// SearchFilter narrows manager transaction searches. Zero values match all.
type SearchFilter struct {
	MemberID *int64
	ActorID  *int64
	Kind     Kind
	From     *time.Time
	To       *time.Time
	Pagination
}

// Balance is a member's cached balance next to the sum recomputed from
// the transaction log.
type Balance struct {
	MemberID   int64 `json:"member_id"`
	Points     int64 `json:"points"`
	Computed   int64 `json:"computed"`
	Consistent bool  `json:"consistent"`
}

// Drift reports a member whose cached balance disagrees with the log.
type Drift struct {
	MemberID int64 `db:"member_id" json:"member_id"`
	Cached   int64 `db:"cached" json:"cached"`
	Computed int64 `db:"computed" json:"computed"`
}

// ApplyAmount returns points moved by amount. A credit that would overflow
// fails with ErrInvalidAmount, a debit below zero with ErrInsufficientBalance.
func ApplyAmount(points, amount int64) (int64, error) {
	if amount > 0 && points > math.MaxInt64-amount {
		return 0, ErrInvalidAmount
	}
	if points+amount < 0 {
		return 0, ErrInsufficientBalance
	}
	return points + amount, nil
}
