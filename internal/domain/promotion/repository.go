package promotion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository persists promotions. GetByID returns nil, nil when missing.
type Repository interface {
	Create(ctx context.Context, p *Promotion) error
	GetByID(ctx context.Context, id int64) (*Promotion, error)
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]*Promotion, int, error)
}

const promotionColumns = `id, name, description, start_time, end_time, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a new promotion repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Promotion) error {
	query := `
		INSERT INTO promotions (name, description, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, p.Name, p.Description, p.StartTime, p.EndTime).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Promotion, error) {
	var p Promotion
	err := r.db.GetContext(ctx, &p, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *Promotion) error {
	query := `
		UPDATE promotions
		SET name = $2, description = $3, start_time = $4, end_time = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.ID, p.Name, p.Description, p.StartTime, p.EndTime).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPromotionNotFound
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Promotion, int, error) {
	where := ""
	args := []interface{}{}
	if filter.ActiveAt != nil {
		where = " WHERE end_time > $1"
		args = append(args, *filter.ActiveAt)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM promotions`+where, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM promotions%s ORDER BY start_time, id LIMIT $%d OFFSET $%d`,
		promotionColumns, where, len(args)-1, len(args))

	promotions := make([]*Promotion, 0)
	if err := r.db.SelectContext(ctx, &promotions, query, args...); err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}
