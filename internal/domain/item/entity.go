package item

import (
	"time"

	"github.com/google/uuid"
)

// Status represents item status. An item enters the catalog as pending,
// an admin moves it to approved or rejected, and a settled swap moves it
// to swapped (terminal: the item is no longer available for swaps).
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSwapped  Status = "swapped"
)

// Item represents a listed clothing item
type Item struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Size        string    `db:"size" json:"size"`
	Condition   string    `db:"condition" json:"condition"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	PointsPrice int64     `db:"points_price" json:"points_price"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Available reports whether the item can receive swap requests
func (i *Item) Available() bool {
	return i.Status == StatusApproved
}
