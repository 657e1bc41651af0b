package ledger

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository is the only writer of users.points_balance and the
// transactions log. Every mutation happens inside a single database
// transaction with row locks, so a caller either observes the whole
// settlement or none of it.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates ledger repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// CreatePending inserts a pending transaction. The unique index on
// razorpay_order_id makes order creation idempotent: a second insert for
// the same gateway order fails with ErrDuplicateReference.
func (r *Repository) CreatePending(ctx context.Context, t *Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now()
	t.Status = StatusPending
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, kind, points, amount, status, razorpay_order_id, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.UserID, t.Kind, t.Points, t.Amount, t.Status, t.RazorpayOrderID, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

// GetTransaction returns a transaction, or nil when not found
func (r *Repository) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var t Transaction
	err := r.db.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByOrderRef returns the transaction opened for a gateway order id, or
// nil when no transaction references it
func (r *Repository) GetByOrderRef(ctx context.Context, orderRef string) (*Transaction, error) {
	var t Transaction
	err := r.db.GetContext(ctx, &t, `SELECT * FROM transactions WHERE razorpay_order_id = $1`, orderRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Complete moves a pending transaction to completed and credits the owner's
// balance as one atomic unit. The FOR UPDATE lock on the transaction row
// serializes duplicate deliveries: the first caller applies the credit, every
// later caller observes status=completed and gets AlreadyProcessed=true with
// the current balance and no second credit.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, paymentRef string) (*CompletionResult, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t Transaction
	err = tx.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	switch t.Status {
	case StatusCompleted:
		var balance int64
		if err := tx.GetContext(ctx, &balance, `SELECT points_balance FROM users WHERE id = $1`, t.UserID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &CompletionResult{
			TransactionID:    t.ID,
			UserID:           t.UserID,
			Points:           t.Points,
			NewBalance:       balance,
			AlreadyProcessed: true,
		}, nil
	case StatusPending:
		// fall through to settlement
	default:
		return nil, ErrTransactionNotPending
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'completed', razorpay_payment_id = $2, updated_at = now()
		WHERE id = $1
	`, t.ID, paymentRef); err != nil {
		return nil, err
	}

	var newBalance int64
	err = tx.GetContext(ctx, &newBalance, `
		UPDATE users
		SET points_balance = points_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING points_balance
	`, t.Points, t.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &CompletionResult{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Points:        t.Points,
		NewBalance:    newBalance,
	}, nil
}

// Fail moves a pending transaction to failed. Completed transactions are
// left untouched (the money already moved).
func (r *Repository) Fail(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = 'failed', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return ErrTransactionNotFound
		}
		return ErrTransactionNotPending
	}
	return nil
}

// Transfer debits one user and credits another inside its own transaction
func (r *Repository) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, reference string) (*TransferResult, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := r.TransferTx(ctx, tx, fromID, toID, amount, reference)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// TransferTx debits fromID and credits toID by the same amount within a
// caller-owned transaction, so settlement code can make the transfer atomic
// with its own status writes. Both wallet rows are locked FOR UPDATE in
// UUID order; opposite concurrent transfers cannot deadlock. Total points
// across the two users are unchanged by construction.
func (r *Repository) TransferTx(ctx context.Context, tx *sqlx.Tx, fromID, toID uuid.UUID, amount int64, reference string) (*TransferResult, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if fromID == toID {
		return nil, ErrSelfTransfer
	}

	first, second := fromID, toID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	balances := map[uuid.UUID]int64{}
	for _, id := range []uuid.UUID{first, second} {
		var balance int64
		err := tx.GetContext(ctx, &balance, `SELECT points_balance FROM users WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if err != nil {
			return nil, err
		}
		balances[id] = balance
	}

	if balances[fromID] < amount {
		return nil, ErrInsufficientBalance
	}

	if amount == 0 {
		return &TransferResult{FromBalance: balances[fromID], ToBalance: balances[toID]}, nil
	}

	var fromBalance int64
	if err := tx.GetContext(ctx, &fromBalance, `
		UPDATE users SET points_balance = points_balance - $1, updated_at = now()
		WHERE id = $2 RETURNING points_balance
	`, amount, fromID); err != nil {
		return nil, err
	}

	var toBalance int64
	if err := tx.GetContext(ctx, &toBalance, `
		UPDATE users SET points_balance = points_balance + $1, updated_at = now()
		WHERE id = $2 RETURNING points_balance
	`, amount, toID); err != nil {
		return nil, err
	}

	// Audit rows for both sides of the transfer, settled in the same tx.
	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, kind, points, amount, status, description, created_at, updated_at)
		VALUES ($1, $2, 'swap', $3, 0, 'completed', $4, $5, $5),
		       ($6, $7, 'swap', $3, 0, 'completed', $8, $5, $5)
	`, uuid.New(), fromID, amount, fmt.Sprintf("Points sent (%s)", reference), now,
		uuid.New(), toID, fmt.Sprintf("Points received (%s)", reference)); err != nil {
		return nil, err
	}

	return &TransferResult{FromBalance: fromBalance, ToBalance: toBalance}, nil
}

// GetBalance returns the user's current points balance
func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT points_balance FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return balance, err
}

// ListByUser returns a page of the user's transaction history, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, f Filter, limit, offset int) ([]Transaction, int, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{userID}
	if f.Kind != "" {
		args = append(args, f.Kind)
		where += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions `+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT * FROM transactions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	var transactions []Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}
