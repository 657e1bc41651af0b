package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/domain/notification"
	"github.com/rewear/rewear-api/internal/pkg/razorpay"
)

// PaisePerPoint converts points to the gateway amount: one point costs one
// rupee, charged in paise.
const PaisePerPoint = 100

// Gateway is the payment gateway surface the service needs
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Ledger is the points ledger surface the service needs
type Ledger interface {
	CreatePendingTransaction(ctx context.Context, userID uuid.UUID, kind ledger.Kind, points, amount int64, orderRef, description string) (*ledger.Transaction, error)
	GetTransactionByOrderRef(ctx context.Context, orderRef string) (*ledger.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	CompleteTransaction(ctx context.Context, transactionID uuid.UUID, paymentRef string) (*ledger.CompletionResult, error)
	FailTransaction(ctx context.Context, transactionID uuid.UUID) error
}

// Service handles the points purchase flow: order creation, checkout
// callback verification, and failure marking
type Service struct {
	gateway Gateway
	ledger  Ledger
	events  notification.Emitter
}

// NewService creates payment service
func NewService(gateway Gateway, l Ledger, events notification.Emitter) *Service {
	return &Service{gateway: gateway, ledger: l, events: events}
}

func (s *Service) emit(name string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Emit(notification.Event{Name: name, Payload: payload})
}

// OrderResult carries what the checkout widget needs plus the ledger entry
type OrderResult struct {
	OrderID       string    `json:"order_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	KeyID         string    `json:"key_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Points        int64     `json:"points"`
}

// CreateOrder creates a gateway order for a points purchase and opens the
// matching pending ledger entry. No balance changes until the payment is
// verified.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, points int64, method string) (*OrderResult, error) {
	if points <= 0 {
		return nil, ErrInvalidPoints
	}

	amount := points * PaisePerPoint
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   amount,
		Currency: "INR",
		Receipt:  fmt.Sprintf("points_%s", uuid.NewString()[:8]),
		Notes: map[string]string{
			"user_id": userID.String(),
			"points":  fmt.Sprintf("%d", points),
			"method":  method,
		},
	})
	if err != nil {
		return nil, err
	}

	t, err := s.ledger.CreatePendingTransaction(ctx, userID, ledger.KindPurchase, points, amount, order.ID,
		fmt.Sprintf("Purchase of %d points", points))
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID).
		Str("transaction_id", t.ID.String()).
		Str("user_id", userID.String()).
		Int64("points", points).
		Msg("payment order created")

	return &OrderResult{
		OrderID:       order.ID,
		Amount:        order.Amount,
		Currency:      order.Currency,
		KeyID:         s.gateway.KeyID(),
		TransactionID: t.ID,
		Points:        points,
	}, nil
}

// VerifyResult is the outcome of a verified checkout callback
type VerifyResult struct {
	TransactionID    uuid.UUID `json:"transaction_id"`
	Points           int64     `json:"points_added"`
	NewBalance       int64     `json:"new_balance"`
	AlreadyProcessed bool      `json:"already_processed"`
}

// VerifyPayment checks the checkout signature and settles the pending
// transaction. A bad signature leaves the transaction untouched so a
// legitimate retry can still settle it; repeated deliveries of a valid
// callback credit the balance only once.
func (s *Service) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*VerifyResult, error) {
	// Security boundary first: an unverified caller learns nothing about
	// our transactions, not even whether the order exists.
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		log.Warn().
			Str("order_id", orderID).
			Str("payment_id", paymentID).
			Msg("payment signature verification failed")
		return nil, ErrInvalidSignature
	}

	t, err := s.ledger.GetTransactionByOrderRef(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result, err := s.ledger.CompleteTransaction(ctx, t.ID, paymentID)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed {
		s.emit(notification.EventPaymentCompleted, map[string]interface{}{
			"user_id":        result.UserID,
			"transaction_id": result.TransactionID,
			"points":         result.Points,
			"balance":        result.NewBalance,
		})
	}

	return &VerifyResult{
		TransactionID:    result.TransactionID,
		Points:           result.Points,
		NewBalance:       result.NewBalance,
		AlreadyProcessed: result.AlreadyProcessed,
	}, nil
}

// FailPayment marks the caller's pending transaction as failed, used when
// checkout is dismissed or the gateway reports a failure
func (s *Service) FailPayment(ctx context.Context, transactionID, userID uuid.UUID) error {
	t, err := s.ledger.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if t.UserID != userID {
		return ErrNotTransactionOwner
	}
	return s.ledger.FailTransaction(ctx, transactionID)
}
