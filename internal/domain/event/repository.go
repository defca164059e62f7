package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository persists events. GetByID returns nil, nil when missing.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]*Event, int, error)
}

const eventColumns = `id, name, description, location, start_time, end_time, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Event) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO events (name, description, location, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, e.Name, e.Description, e.Location, e.StartTime, e.EndTime).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Event, error) {
	var e Event
	err := r.db.GetContext(ctx, &e, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) Update(ctx context.Context, e *Event) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE events
		SET name = $2, description = $3, location = $4, start_time = $5, end_time = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.Name, e.Description, e.Location, e.StartTime, e.EndTime).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Event, int, error) {
	where := ""
	args := []interface{}{}
	if filter.StartsAfter != nil {
		where = " WHERE start_time > $1"
		args = append(args, *filter.StartsAfter)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events`+where, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY start_time, id LIMIT $%d OFFSET $%d`,
		eventColumns, where, len(args)-1, len(args))

	events := make([]*Event, 0)
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
