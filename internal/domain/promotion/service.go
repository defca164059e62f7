package promotion

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns promotions, optionally only those that have not ended.
func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Promotion, int, error) {
	filter := ListFilter{Limit: limit, Offset: offset}
	if activeOnly {
		now := s.now()
		filter.ActiveAt = &now
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (*Promotion, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPromotionNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, actor user.Actor, p *Promotion) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	p.Name = strings.TrimSpace(p.Name)
	if !p.EndTime.After(p.StartTime) {
		return ErrInvalidWindow
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	log.Info().Int64("promotion_id", p.ID).Int64("created_by", actor.ID).Msg("Promotion created")
	return nil
}

func (s *Service) Update(ctx context.Context, actor user.Actor, id int64, patch Patch) (*Promotion, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	if patch.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	if !p.EndTime.After(p.StartTime) {
		return nil, ErrInvalidWindow
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor user.Actor, id int64) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("promotion_id", id).Int64("deleted_by", actor.ID).Msg("Promotion deleted")
	return nil
}
