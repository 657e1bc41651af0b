package swap

import (
	"time"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/ledger"
)

// Status represents swap request status. pending is the only state that
// accepts a decision; approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a swap request from a requester toward an item's owner
type Request struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ItemID      uuid.UUID `db:"item_id" json:"item_id"`
	RequesterID uuid.UUID `db:"requester_id" json:"requester_id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SettlementResult describes what an approval changed
type SettlementResult struct {
	Request     *Request               `json:"request"`
	Transfer    *ledger.TransferResult `json:"transfer,omitempty"`
	RejectedIDs []uuid.UUID            `json:"rejected_ids,omitempty"`
}
