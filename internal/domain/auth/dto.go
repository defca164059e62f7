package auth

import "github.com/loyalprogram/loyalty-api/internal/domain/user"

// LoginRequest for POST /auth/login
type LoginRequest struct {
	UTORid   string `json:"utorid" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest for POST /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse returned after login and refresh
type AuthResponse struct {
	User   *user.User     `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// TokensResponse represents tokens in API response
type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds until access token expires
	TokenType    string `json:"token_type"`
}
