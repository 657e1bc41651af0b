package swap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rewear/rewear-api/internal/domain/ledger"
)

// PointsTransferrer moves points within a caller-owned transaction.
// Implemented by the ledger service.
type PointsTransferrer interface {
	TransferPointsTx(ctx context.Context, tx *sqlx.Tx, fromID, toID uuid.UUID, amount int64, reference string) (*ledger.TransferResult, error)
}

// Repository handles swap request storage. Settlement runs in a single
// database transaction together with the item status flip and the points
// transfer: a swap either settles completely or not at all.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates swap repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending swap request. The partial unique index on
// (item_id, requester_id) WHERE status='pending' rejects a second open
// request from the same user for the same item.
func (r *Repository) Create(ctx context.Context, sr *Request) error {
	if sr.ID == uuid.Nil {
		sr.ID = uuid.New()
	}
	now := time.Now()
	sr.Status = StatusPending
	sr.CreatedAt = now
	sr.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO swap_requests (id, item_id, requester_id, owner_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sr.ID, sr.ItemID, sr.RequesterID, sr.OwnerID, sr.Status, sr.CreatedAt, sr.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return err
	}
	return nil
}

// GetByID returns a swap request, or nil when not found
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var sr Request
	err := r.db.GetContext(ctx, &sr, `SELECT * FROM swap_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// ListIncoming returns requests toward the user's items, newest first
func (r *Repository) ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]Request, error) {
	var requests []Request
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM swap_requests WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	return requests, err
}

// ListOutgoing returns requests the user has made, newest first
func (r *Repository) ListOutgoing(ctx context.Context, requesterID uuid.UUID) ([]Request, error) {
	var requests []Request
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM swap_requests WHERE requester_id = $1 ORDER BY created_at DESC
	`, requesterID)
	return requests, err
}

// Settle approves a swap request atomically: the request moves to approved,
// the item to swapped, the requester pays the owner, and every other pending
// request for the item is auto-rejected. Lock order is item row first, then
// swap rows. Every settlement for the same item serializes on the item lock
// before touching any request row, so a concurrent approval can never hold a
// request lock the auto-reject sweep needs while waiting for the item.
func (r *Repository) Settle(ctx context.Context, swapID uuid.UUID, price int64, transfer PointsTransferrer) (*SettlementResult, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Unlocked read, only to learn which item the request targets.
	var sr Request
	err = tx.GetContext(ctx, &sr, `SELECT * FROM swap_requests WHERE id = $1`, swapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSwapNotFound
	}
	if err != nil {
		return nil, err
	}

	var itemStatus string
	err = tx.GetContext(ctx, &itemStatus, `SELECT status FROM items WHERE id = $1 FOR UPDATE`, sr.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotAvailable
	}
	if err != nil {
		return nil, err
	}
	if itemStatus != "approved" {
		// A concurrent settlement already flipped the item.
		return nil, ErrItemNotAvailable
	}

	// Re-read the request under its own lock: the winner's sweep may have
	// rejected it while we waited for the item.
	err = tx.GetContext(ctx, &sr, `SELECT * FROM swap_requests WHERE id = $1 FOR UPDATE`, swapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSwapNotFound
	}
	if err != nil {
		return nil, err
	}
	if sr.Status != StatusPending {
		return nil, ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET status = 'swapped', updated_at = now()
		WHERE id = $1
	`, sr.ItemID); err != nil {
		return nil, err
	}

	var transferResult *ledger.TransferResult
	if price > 0 {
		transferResult, err = transfer.TransferPointsTx(ctx, tx, sr.RequesterID, sr.OwnerID, price, fmt.Sprintf("swap %s", sr.ID))
		if err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE swap_requests SET status = 'approved', updated_at = now()
		WHERE id = $1
	`, sr.ID); err != nil {
		return nil, err
	}
	sr.Status = StatusApproved

	var rejectedIDs []uuid.UUID
	if err := tx.SelectContext(ctx, &rejectedIDs, `
		UPDATE swap_requests SET status = 'rejected', updated_at = now()
		WHERE item_id = $1 AND status = 'pending' AND id <> $2
		RETURNING id
	`, sr.ItemID, sr.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &SettlementResult{Request: &sr, Transfer: transferResult, RejectedIDs: rejectedIDs}, nil
}

// Reject declines a pending swap request. Only pending requests can be
// rejected, decided ones stay as they are.
func (r *Repository) Reject(ctx context.Context, swapID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE swap_requests SET status = 'rejected', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, swapID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM swap_requests WHERE id = $1)`, swapID); err != nil {
			return err
		}
		if !exists {
			return ErrSwapNotFound
		}
		return ErrInvalidState
	}
	return nil
}
