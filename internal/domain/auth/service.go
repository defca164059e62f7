package auth

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/jwt"
	"github.com/loyalprogram/loyalty-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	tokens     TokenStore
	now        func() time.Time
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, tokens TokenStore) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokens:     tokens,
		now:        time.Now,
	}
}

// Login authenticates a user by utorid and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	utorid := strings.ToLower(strings.TrimSpace(req.UTORid))

	u, err := s.userRepo.GetByUTORid(ctx, utorid)
	if err != nil {
		return nil, err
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, u.ID, s.now()); err != nil {
		log.Warn().Err(err).Int64("user_id", u.ID).Msg("Failed to record last login")
	}

	return s.generateTokens(ctx, u)
}

// Refresh rotates a refresh token and issues a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	hash := jwt.HashRefreshToken(refreshToken)
	owner, err := s.tokens.Lookup(ctx, hash)
	if err != nil {
		return nil, err
	}
	if owner != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, owner)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	_ = s.tokens.Delete(ctx, hash)
	return s.generateTokens(ctx, u)
}

// Logout invalidates refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role), u.Verified)
	if err != nil {
		return nil, err
	}

	refreshToken, _, expiresAt, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, jwt.HashRefreshToken(refreshToken), u.ID, expiresAt.Sub(s.now())); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: u,
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}
