package event

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

func (s *Service) List(ctx context.Context, upcomingOnly bool, limit, offset int) ([]*Event, int, error) {
	filter := ListFilter{Limit: limit, Offset: offset}
	if upcomingOnly {
		now := s.now()
		filter.StartsAfter = &now
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (s *Service) Create(ctx context.Context, actor user.Actor, e *Event) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	e.Name = strings.TrimSpace(e.Name)
	e.Location = strings.TrimSpace(e.Location)
	if !e.EndTime.After(e.StartTime) {
		return ErrInvalidWindow
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	log.Info().Int64("event_id", e.ID).Int64("created_by", actor.ID).Msg("Event created")
	return nil
}

func (s *Service) Update(ctx context.Context, actor user.Actor, id int64, req UpdateRequest) (*Event, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	if req.isEmpty() {
		return nil, ErrNothingToUpdate
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(e)
	if !e.EndTime.After(e.StartTime) {
		return nil, ErrInvalidWindow
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, actor user.Actor, id int64) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
