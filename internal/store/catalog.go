package store

import (
	"context"
	"sort"

	"github.com/loyalprogram/loyalty-api/internal/domain/event"
	"github.com/loyalprogram/loyalty-api/internal/domain/promotion"
)

type promotionRepo struct{ s *MemoryStore }

func (r *promotionRepo) Create(_ context.Context, p *promotion.Promotion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPromotionID++
	p.ID = r.s.nextPromotionID
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	r.s.promotions[p.ID] = &stored
	return nil
}

func (r *promotionRepo) GetByID(_ context.Context, id int64) (*promotion.Promotion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.promotions[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *promotionRepo) Update(_ context.Context, p *promotion.Promotion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.promotions[p.ID]; !ok {
		return promotion.ErrPromotionNotFound
	}
	p.UpdatedAt = r.s.now()
	stored := *p
	r.s.promotions[p.ID] = &stored
	return nil
}

func (r *promotionRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.promotions[id]; !ok {
		return promotion.ErrPromotionNotFound
	}
	delete(r.s.promotions, id)
	return nil
}

func (r *promotionRepo) List(_ context.Context, filter promotion.ListFilter) ([]*promotion.Promotion, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := make([]*promotion.Promotion, 0)
	for _, p := range r.s.promotions {
		if filter.ActiveAt != nil && !p.IsActive(*filter.ActiveAt) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartTime.Equal(matched[j].StartTime) {
			return matched[i].StartTime.Before(matched[j].StartTime)
		}
		return matched[i].ID < matched[j].ID
	})
	return window(matched, filter.Limit, filter.Offset, 20), len(matched), nil
}

type eventRepo struct{ s *MemoryStore }

func (r *eventRepo) Create(_ context.Context, e *event.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextEventID++
	e.ID = r.s.nextEventID
	e.CreatedAt = r.s.now()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	r.s.events[e.ID] = &stored
	return nil
}

func (r *eventRepo) GetByID(_ context.Context, id int64) (*event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *eventRepo) Update(_ context.Context, e *event.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[e.ID]; !ok {
		return event.ErrEventNotFound
	}
	e.UpdatedAt = r.s.now()
	stored := *e
	r.s.events[e.ID] = &stored
	return nil
}

func (r *eventRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return event.ErrEventNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r *eventRepo) List(_ context.Context, filter event.ListFilter) ([]*event.Event, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := make([]*event.Event, 0)
	for _, e := range r.s.events {
		if filter.StartsAfter != nil && !e.IsUpcoming(*filter.StartsAfter) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartTime.Equal(matched[j].StartTime) {
			return matched[i].StartTime.Before(matched[j].StartTime)
		}
		return matched[i].ID < matched[j].ID
	})
	return window(matched, filter.Limit, filter.Offset, 20), len(matched), nil
}
