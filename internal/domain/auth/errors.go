package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("invalid utorid or password")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrUserNotFound         = errors.New("user not found")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
)
