package event

import "time"

type CreateRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=120"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"required,max=200"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
}

type UpdateRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

func (r UpdateRequest) isEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Location == nil && r.StartTime == nil && r.EndTime == nil
}

func (r UpdateRequest) apply(e *Event) {
	if r.Name != nil {
		e.Name = *r.Name
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Location != nil {
		e.Location = *r.Location
	}
	if r.StartTime != nil {
		e.StartTime = r.StartTime.UTC()
	}
	if r.EndTime != nil {
		e.EndTime = r.EndTime.UTC()
	}
}
