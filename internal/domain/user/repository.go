package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines user data access. Lookups return nil, nil when the
// user does not exist.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUTORid(ctx context.Context, utorid string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdateFlags(ctx context.Context, id int64, flags Flags) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter ListFilter) ([]*User, int, error)
}

const userColumns = `id, utorid, name, email, birthday, points, verified, suspicious, role,
	password_hash, created_at, updated_at, last_login_at`

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (utorid, name, email, birthday, verified, suspicious, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, points, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.UTORid,
		user.Name,
		user.Email,
		user.Birthday,
		user.Verified,
		user.Suspicious,
		user.Role,
		user.PasswordHash,
	).Scan(&user.ID, &user.Points, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err, "user repository create")
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) GetByUTORid(ctx context.Context, utorid string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE utorid = $1`, utorid)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile writes the self-editable fields. utorid and points are never touched here.
func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, birthday = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, user.ID, user.Name, user.Email, user.Birthday).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return mapUniqueViolation(err, "user repository update profile")
	}
	return nil
}

func (r *repository) UpdateFlags(ctx context.Context, id int64, flags Flags) (*User, error) {
	var (
		sets []string
		args = []interface{}{id}
	)
	if flags.Verified != nil {
		args = append(args, *flags.Verified)
		sets = append(sets, fmt.Sprintf("verified = $%d", len(args)))
	}
	if flags.Suspicious != nil {
		args = append(args, *flags.Suspicious)
		sets = append(sets, fmt.Sprintf("suspicious = $%d", len(args)))
	}
	if flags.Role != nil {
		args = append(args, *flags.Role)
		sets = append(sets, fmt.Sprintf("role = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil, ErrNothingToUpdate
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	var u User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository update flags: %w", err)
	}
	return &u, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	return err
}

func (r *repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*User, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		where = append(where, fmt.Sprintf("verified = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		where = append(where, fmt.Sprintf("(LOWER(utorid) LIKE $%d OR LOWER(name) LIKE $%d)", len(args), len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+clause, args...); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY id LIMIT $%d OFFSET $%d`,
		userColumns, clause, len(args)-1, len(args))

	var users []*User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func mapUniqueViolation(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "utorid"):
			return ErrUTORidTaken
		case strings.Contains(pqErr.Constraint, "email"):
			return ErrEmailTaken
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
