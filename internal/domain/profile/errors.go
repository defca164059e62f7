package profile

import "errors"

var (
	ErrWeakPassword = errors.New("password is too short")
)
