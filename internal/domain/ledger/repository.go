package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository persists the append-only transaction log together with the
// cached member balance.
type Repository interface {
	// Append records entry and moves the member's cached balance by
	// entry.Amount atomically. It fails with ErrMemberNotFound or, when the
	// balance would go negative, ErrInsufficientBalance, writing nothing.
	Append(ctx context.Context, entry Entry) (*Transaction, error)
	GetBalance(ctx context.Context, memberID int64) (int64, error)
	SumAmounts(ctx context.Context, memberID int64) (int64, error)
	// ListByMember returns a member's transactions in creation order.
	ListByMember(ctx context.Context, memberID int64, page Pagination) ([]*Transaction, int, error)
	Search(ctx context.Context, filter SearchFilter) ([]*Transaction, int, error)
	FindDrift(ctx context.Context) ([]Drift, error)
}

const transactionColumns = `id, kind, amount, member_id, actor_id, note, redemption_id, created_at`

// PostgresRepository stores the log in the transactions table and the
// cached balance in users.points.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry Entry) (*Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	txn, err := r.AppendTx(ctx2, tx, entry)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return txn, nil
}

// AppendTx appends within an external transaction, holding the member row
// lock until the caller commits. It does not commit or roll back.
func (r *PostgresRepository) AppendTx(ctx context.Context, tx *sqlx.Tx, entry Entry) (*Transaction, error) {
	if !entry.Kind.IsValid() {
		return nil, ErrInvalidKind
	}

	var points int64
	err := tx.QueryRowContext(ctx, `SELECT points FROM users WHERE id = $1 FOR UPDATE`, entry.MemberID).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("%w: lock member row", ErrInternal)
	}

	if _, err := ApplyAmount(points, entry.Amount); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points + $2, updated_at = NOW() WHERE id = $1`,
		entry.MemberID, entry.Amount,
	); err != nil {
		return nil, fmt.Errorf("%w: update member balance", ErrInternal)
	}

	txn := &Transaction{
		Kind:         entry.Kind,
		Amount:       entry.Amount,
		MemberID:     entry.MemberID,
		ActorID:      entry.ActorID,
		Note:         entry.Note,
		RedemptionID: entry.RedemptionID,
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (kind, amount, member_id, actor_id, note, redemption_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, txn.Kind, txn.Amount, txn.MemberID, txn.ActorID, txn.Note, txn.RedemptionID).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	return txn, nil
}

func (r *PostgresRepository) GetBalance(ctx context.Context, memberID int64) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var points int64
	err := r.db.GetContext(ctx2, &points, `SELECT points FROM users WHERE id = $1`, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrMemberNotFound
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}
	return points, nil
}

func (r *PostgresRepository) SumAmounts(ctx context.Context, memberID int64) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int64
	err := r.db.GetContext(ctx2, &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE member_id = $1`, memberID)
	if err != nil {
		return 0, fmt.Errorf("%w: sum amounts", ErrInternal)
	}
	return sum, nil
}

func (r *PostgresRepository) ListByMember(ctx context.Context, memberID int64, page Pagination) ([]*Transaction, int, error) {
	id := memberID
	return r.Search(ctx, SearchFilter{MemberID: &id, Pagination: page})
}

func (r *PostgresRepository) Search(ctx context.Context, filter SearchFilter) ([]*Transaction, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := " WHERE 1=1"
	args := make([]interface{}, 0, 8)
	idx := 1

	if filter.MemberID != nil {
		where += fmt.Sprintf(" AND member_id = $%d", idx)
		args = append(args, *filter.MemberID)
		idx++
	}
	if filter.ActorID != nil {
		where += fmt.Sprintf(" AND actor_id = $%d", idx)
		args = append(args, *filter.ActorID)
		idx++
	}
	if filter.Kind != "" {
		where += fmt.Sprintf(" AND kind = $%d", idx)
		args = append(args, filter.Kind)
		idx++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: count transactions", ErrInternal)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := strings.TrimSpace(`SELECT `+transactionColumns+` FROM transactions`+where) +
		fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	transactions := make([]*Transaction, 0)
	if err := r.db.SelectContext(ctx2, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: search transactions", ErrInternal)
	}
	return transactions, total, nil
}

func (r *PostgresRepository) FindDrift(ctx context.Context) ([]Drift, error) {
	drift := make([]Drift, 0)
	err := r.db.SelectContext(ctx, &drift, `
		SELECT u.id AS member_id, u.points AS cached, COALESCE(SUM(t.amount), 0) AS computed
		FROM users u
		LEFT JOIN transactions t ON t.member_id = u.id
		GROUP BY u.id, u.points
		HAVING u.points <> COALESCE(SUM(t.amount), 0)
		ORDER BY u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: find drift", ErrInternal)
	}
	return drift, nil
}
