package event

import "time"

// Event is a scheduled program event members can attend.
type Event struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Location    string    `db:"location" json:"location"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsUpcoming reports whether the event starts after now.
func (e *Event) IsUpcoming(now time.Time) bool {
	return e.StartTime.After(now)
}

type ListFilter struct {
	StartsAfter *time.Time
	Limit       int
	Offset      int
}
