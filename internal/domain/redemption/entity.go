package redemption

import "time"

// Status of a redemption request. Transitions are one-way:
// pending -> processed and pending -> cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusCancelled:
		return true
	}
	return false
}

// MaxRemarkLength bounds request remarks, in characters.
const MaxRemarkLength = 200

// Request is a member's ask to spend points. Creating one never moves the
// balance; the debit happens when staff process it.
type Request struct {
	ID            int64      `db:"id" json:"id"`
	MemberID      int64      `db:"member_id" json:"user_id"`
	Amount        int64      `db:"amount" json:"amount"`
	Remark        string     `db:"remark" json:"remark,omitempty"`
	Status        Status     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	ProcessedBy   *int64     `db:"processed_by" json:"processed_by,omitempty"`
	CancelledAt   *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	TransactionID *int64     `db:"transaction_id" json:"transaction_id,omitempty"`
}

// IsPending reports whether the request can still be processed or cancelled.
func (r *Request) IsPending() bool { return r.Status == StatusPending }

// ListFilter narrows request listings. Zero values match all.
type ListFilter struct {
	MemberID *int64
	Status   Status
	Limit    int
	Offset   int
}
