package user

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUTORidTaken     = errors.New("utorid already registered")
	ErrEmailTaken      = errors.New("email already registered")
	ErrForbidden       = errors.New("not allowed for this role")
	ErrInvalidRole     = errors.New("invalid role")
	ErrNothingToUpdate = errors.New("nothing to update")
)
