package promotion

import "time"

// Promotion is a time-boxed offer shown to members.
type Promotion struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsActive reports whether the promotion has not yet ended at now.
func (p *Promotion) IsActive(now time.Time) bool {
	return now.Before(p.EndTime)
}

// ListFilter narrows promotion listings. ActiveAt keeps promotions that
// have not ended at that instant.
type ListFilter struct {
	ActiveAt *time.Time
	Limit    int
	Offset   int
}

// Patch holds optional field updates.
type Patch struct {
	Name        *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.StartTime == nil && p.EndTime == nil
}

func (p Patch) Apply(promo *Promotion) {
	if p.Name != nil {
		promo.Name = *p.Name
	}
	if p.Description != nil {
		promo.Description = *p.Description
	}
	if p.StartTime != nil {
		promo.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		promo.EndTime = *p.EndTime
	}
}
