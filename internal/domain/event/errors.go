package event

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrInvalidWindow   = errors.New("end time must be after start time")
	ErrNothingToUpdate = errors.New("nothing to update")
	ErrForbidden       = errors.New("insufficient permissions")
)
