package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository handles item storage
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates item repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new item with status pending
func (r *Repository) Create(ctx context.Context, i *Item) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	now := time.Now()
	i.Status = StatusPending
	i.CreatedAt = now
	i.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO items (id, owner_id, title, description, category, size, condition, image_url, points_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, i.ID, i.OwnerID, i.Title, i.Description, i.Category, i.Size, i.Condition, i.ImageURL, i.PointsPrice, i.Status, i.CreatedAt, i.UpdatedAt)
	return err
}

// GetByID returns an item, or nil when not found
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	var i Item
	err := r.db.GetContext(ctx, &i, `SELECT * FROM items WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// List returns a page of items, optionally filtered by status, newest first
func (r *Repository) List(ctx context.Context, status Status, limit, offset int) ([]Item, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		where = `WHERE status = $1`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM items `+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT * FROM items %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	var items []Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByOwner returns all items listed by a user, newest first
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Item, error) {
	var items []Item
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM items WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	return items, err
}

// SetStatus moves an item from pending to the given moderation outcome.
// Returns ErrInvalidState when the item exists but already left pending.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, to Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE items SET status = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, to)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return ErrItemNotFound
		}
		return ErrInvalidState
	}
	return nil
}

// Delete removes an item. Swap requests referencing it are removed by the
// ON DELETE CASCADE foreign key, so no request can outlive its item.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}
