package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/domain/qrcode"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/password"
)

// Service handles member account business logic
type Service struct {
	userRepo user.Repository
}

// NewService creates profile service
func NewService(userRepo user.Repository) *Service {
	return &Service{userRepo: userRepo}
}

// Register creates a member account on behalf of staff. Only managers may
// create cashier or manager accounts.
func (s *Service) Register(ctx context.Context, actor user.Actor, req *RegisterRequest) (*user.User, error) {
	if !actor.IsStaff() {
		return nil, user.ErrForbidden
	}

	role := user.Role(req.Role)
	if role == "" {
		role = user.RoleMember
	}
	if !role.IsValid() {
		return nil, user.ErrInvalidRole
	}
	if role != user.RoleMember && !actor.IsManager() {
		return nil, user.ErrForbidden
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, ErrWeakPassword
		}
		return nil, err
	}

	u := &user.User{
		UTORid:       strings.ToLower(strings.TrimSpace(req.UTORid)),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Birthday:     req.Birthday,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", u.ID).
		Str("utorid", u.UTORid).
		Str("role", string(u.Role)).
		Int64("created_by", actor.ID).
		Msg("User registered")
	return u, nil
}

// Get returns a user visible to the actor: themselves, or anyone for staff.
func (s *Service) Get(ctx context.Context, actor user.Actor, id int64) (*user.User, error) {
	if actor.ID != id && !actor.IsStaff() {
		return nil, user.ErrForbidden
	}
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// UpdateMe edits the actor's own name, email and birthday.
func (s *Service) UpdateMe(ctx context.Context, actor user.Actor, req *UpdateMeRequest) (*user.User, error) {
	if req.Name == nil && req.Email == nil && req.Birthday == nil {
		return nil, user.ErrNothingToUpdate
	}
	u, err := s.Get(ctx, actor, actor.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Birthday != nil {
		b := req.Birthday.UTC().Truncate(24 * time.Hour)
		u.Birthday = &b
	}
	if err := s.userRepo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns users for managers.
func (s *Service) List(ctx context.Context, actor user.Actor, filter user.ListFilter) ([]*user.User, int, error) {
	if !actor.IsManager() {
		return nil, 0, user.ErrForbidden
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, 0, user.ErrInvalidRole
	}
	return s.userRepo.List(ctx, filter)
}

// UpdateFlags sets verification, suspicion and role. Managers only.
func (s *Service) UpdateFlags(ctx context.Context, actor user.Actor, id int64, flags user.Flags) (*user.User, error) {
	if !actor.IsManager() {
		return nil, user.ErrForbidden
	}
	if flags.Role != nil && !flags.Role.IsValid() {
		return nil, user.ErrInvalidRole
	}

	u, err := s.userRepo.UpdateFlags(ctx, id, flags)
	if err != nil {
		return nil, err
	}

	event := log.Info().Int64("user_id", id).Int64("updated_by", actor.ID)
	if flags.Verified != nil {
		event = event.Bool("verified", *flags.Verified)
	}
	if flags.Suspicious != nil {
		event = event.Bool("suspicious", *flags.Suspicious)
	}
	if flags.Role != nil {
		event = event.Str("role", string(*flags.Role))
	}
	event.Msg("User flags updated")
	return u, nil
}

// QRPayload returns the text encoded in the actor's member QR code.
func (s *Service) QRPayload(ctx context.Context, actor user.Actor) (string, error) {
	u, err := s.Get(ctx, actor, actor.ID)
	if err != nil {
		return "", err
	}
	return qrcode.Encode(qrcode.ForUser(u.ID, u.UTORid)), nil
}
