package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
)

type userRepo struct{ s *MemoryStore }

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.UTORid == u.UTORid {
			return user.ErrUTORidTaken
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrEmailTaken
		}
	}

	r.s.nextUserID++
	now := r.s.now()
	u.ID = r.s.nextUserID
	u.Points = 0
	u.CreatedAt = now
	u.UpdatedAt = now
	stored := *u
	r.s.users[u.ID] = &stored
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *userRepo) GetByUTORid(_ context.Context, utorid string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.UTORid == utorid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return user.ErrEmailTaken
		}
	}
	stored.Name = u.Name
	stored.Email = u.Email
	stored.Birthday = u.Birthday
	stored.UpdatedAt = r.s.now()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *userRepo) UpdateFlags(_ context.Context, id int64, flags user.Flags) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if flags.Verified == nil && flags.Suspicious == nil && flags.Role == nil {
		return nil, user.ErrNothingToUpdate
	}
	stored, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	if flags.Verified != nil {
		stored.Verified = *flags.Verified
	}
	if flags.Suspicious != nil {
		stored.Suspicious = *flags.Suspicious
	}
	if flags.Role != nil {
		stored.Role = *flags.Role
	}
	stored.UpdatedAt = r.s.now()
	cp := *stored
	return &cp, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.PasswordHash = passwordHash
		u.UpdatedAt = r.s.now()
	}
	return nil
}

func (r *userRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.LastLoginAt = ptr(at)
	}
	return nil
}

func (r *userRepo) List(_ context.Context, filter user.ListFilter) ([]*user.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]*user.User, 0)
	for _, u := range r.s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Verified != nil && u.Verified != *filter.Verified {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.UTORid), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		cp := *u
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, filter.Limit, filter.Offset, 20), len(matched), nil
}
