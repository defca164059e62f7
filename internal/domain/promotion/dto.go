package promotion

import (
	"time"
)

// CreateRequest for creating new promotion
type CreateRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=120"`
	Description string    `json:"description" validate:"max=2000"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
}

// UpdateRequest for updating promotion
type UpdateRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

func (r UpdateRequest) Patch() Patch {
	return Patch{Name: r.Name, Description: r.Description, StartTime: r.StartTime, EndTime: r.EndTime}
}

// Response for API response
type Response struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ToResponse converts entity to response
func (p *Promotion) ToResponse(now time.Time) *Response {
	return &Response{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartTime:   p.StartTime.Format(time.RFC3339),
		EndTime:     p.EndTime.Format(time.RFC3339),
		Active:      p.IsActive(now),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
