package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Kind represents transaction kind
type Kind string

const (
	KindPurchase Kind = "purchase" // points bought with real money
	KindSwap     Kind = "swap"     // points moved between users on swap settlement
	KindRefund   Kind = "refund"
	KindBonus    Kind = "bonus"
)

// Status represents transaction status
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Transaction is an append-only ledger row. One row per payment attempt;
// rows are never deleted (audit trail). A pending row transitions to
// completed at most once.
type Transaction struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	Kind              Kind           `db:"kind" json:"kind"`
	Points            int64          `db:"points" json:"points"`
	Amount            int64          `db:"amount" json:"amount"` // money charged, in paise
	Status            Status         `db:"status" json:"status"`
	RazorpayOrderID   sql.NullString `db:"razorpay_order_id" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID sql.NullString `db:"razorpay_payment_id" json:"razorpay_payment_id,omitempty"`
	Description       string         `db:"description" json:"description"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// CompletionResult reports the outcome of completing a pending transaction
type CompletionResult struct {
	TransactionID    uuid.UUID `json:"transaction_id"`
	UserID           uuid.UUID `json:"user_id"`
	Points           int64     `json:"points"`
	NewBalance       int64     `json:"new_balance"`
	AlreadyProcessed bool      `json:"already_processed"`
}

// TransferResult reports balances after a point transfer
type TransferResult struct {
	FromBalance int64 `json:"from_balance"`
	ToBalance   int64 `json:"to_balance"`
}

// Filter narrows transaction history queries
type Filter struct {
	Kind   string
	Status string
}
