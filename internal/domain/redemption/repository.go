package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
)

const queryTimeout = 3 * time.Second

// Repository persists redemption requests.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	// GetByID returns nil, nil when the request does not exist.
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]*Request, int, error)
	// Process moves a pending request to processed and appends its debit
	// as one unit. Of several concurrent callers exactly one succeeds; the
	// rest see ErrInvalidState. ledger.ErrInsufficientBalance leaves the
	// request pending with nothing written.
	Process(ctx context.Context, id, processorID int64, note string) (*Request, *ledger.Transaction, error)
	// Cancel moves a pending request to cancelled.
	Cancel(ctx context.Context, id int64) (*Request, error)
}

// TxAppender appends ledger entries inside a caller-owned transaction.
type TxAppender interface {
	AppendTx(ctx context.Context, tx *sqlx.Tx, entry ledger.Entry) (*ledger.Transaction, error)
}

const requestColumns = `id, member_id, amount, remark, status, created_at, processed_at, processed_by,
	cancelled_at, transaction_id`

type PostgresRepository struct {
	db     *sqlx.DB
	ledger TxAppender
}

func NewRepository(db *sqlx.DB, ledger TxAppender) *PostgresRepository {
	return &PostgresRepository{db: db, ledger: ledger}
}

func (r *PostgresRepository) Create(ctx context.Context, req *Request) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx2, `
		INSERT INTO redemption_requests (member_id, amount, remark, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, status, created_at
	`, req.MemberID, req.Amount, req.Remark).Scan(&req.ID, &req.Status, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("redemption repository create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Request, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var req Request
	err := r.db.GetContext(ctx2, &req, `SELECT `+requestColumns+` FROM redemption_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("redemption repository get: %w", err)
	}
	return &req, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Request, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := " WHERE 1=1"
	args := make([]interface{}, 0, 4)
	idx := 1
	if filter.MemberID != nil {
		where += fmt.Sprintf(" AND member_id = $%d", idx)
		args = append(args, *filter.MemberID)
		idx++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, filter.Status)
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM redemption_requests`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("redemption repository count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + requestColumns + ` FROM redemption_requests` + where +
		fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", idx, idx+1)

	items := make([]*Request, 0)
	if err := r.db.SelectContext(ctx2, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("redemption repository list: %w", err)
	}
	return items, total, nil
}

func (r *PostgresRepository) Process(ctx context.Context, id, processorID int64, note string) (*Request, *ledger.Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: begin tx", ledger.ErrInternal)
	}
	defer tx.Rollback()

	// The conditional update takes the row lock; a concurrent processor
	// waits here and then matches zero rows.
	var req Request
	err = tx.GetContext(ctx2, &req, `
		UPDATE redemption_requests
		SET status = 'processed', processed_at = NOW(), processed_by = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns, id, processorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, r.missOrConflict(ctx2, tx, id)
		}
		return nil, nil, fmt.Errorf("redemption repository process: %w", err)
	}

	redemptionID := req.ID
	txn, err := r.ledger.AppendTx(ctx2, tx, ledger.Entry{
		Kind:         ledger.KindRedemption,
		Amount:       -req.Amount,
		MemberID:     req.MemberID,
		ActorID:      processorID,
		Note:         note,
		RedemptionID: &redemptionID,
	})
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.ExecContext(ctx2,
		`UPDATE redemption_requests SET transaction_id = $2 WHERE id = $1`, req.ID, txn.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("redemption repository link transaction: %w", err)
	}
	req.TransactionID = &txn.ID

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: commit tx", ledger.ErrInternal)
	}
	return &req, txn, nil
}

func (r *PostgresRepository) Cancel(ctx context.Context, id int64) (*Request, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var req Request
	err := r.db.GetContext(ctx2, &req, `
		UPDATE redemption_requests
		SET status = 'cancelled', cancelled_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missOrConflict(ctx2, r.db, id)
		}
		return nil, fmt.Errorf("redemption repository cancel: %w", err)
	}
	return &req, nil
}

func (r *PostgresRepository) missOrConflict(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM redemption_requests WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("redemption repository lookup: %w", err)
	}
	if !exists {
		return ErrRequestNotFound
	}
	return ErrInvalidState
}
