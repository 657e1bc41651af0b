package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Service wraps the ledger repository with input validation and logging
type Service struct {
	repo *Repository
}

// NewService creates ledger service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreatePendingTransaction opens a pending ledger entry for a payment
// attempt. orderRef is the gateway order id; reusing one returns
// ErrDuplicateReference.
func (s *Service) CreatePendingTransaction(ctx context.Context, userID uuid.UUID, kind Kind, points, amount int64, orderRef, description string) (*Transaction, error) {
	if points <= 0 {
		return nil, ErrInvalidAmount
	}

	t := &Transaction{
		UserID:      userID,
		Kind:        kind,
		Points:      points,
		Amount:      amount,
		Description: description,
	}
	if orderRef != "" {
		t.RazorpayOrderID = sql.NullString{String: orderRef, Valid: true}
	}

	if err := s.repo.CreatePending(ctx, t); err != nil {
		return nil, err
	}
	log.Info().
		Str("transaction_id", t.ID.String()).
		Str("user_id", userID.String()).
		Str("kind", string(kind)).
		Int64("points", points).
		Msg("pending transaction created")
	return t, nil
}

// CompleteTransaction settles a pending transaction exactly once
func (s *Service) CompleteTransaction(ctx context.Context, transactionID uuid.UUID, paymentRef string) (*CompletionResult, error) {
	result, err := s.repo.Complete(ctx, transactionID, paymentRef)
	if err != nil {
		return nil, err
	}
	if result.AlreadyProcessed {
		log.Info().
			Str("transaction_id", transactionID.String()).
			Msg("transaction already completed, credit skipped")
		return result, nil
	}
	log.Info().
		Str("transaction_id", transactionID.String()).
		Str("user_id", result.UserID.String()).
		Int64("points", result.Points).
		Int64("new_balance", result.NewBalance).
		Msg("transaction completed, balance credited")
	return result, nil
}

// FailTransaction marks a pending transaction failed (checkout dismissed or
// the gateway reported a failure). No balance effect.
func (s *Service) FailTransaction(ctx context.Context, transactionID uuid.UUID) error {
	if err := s.repo.Fail(ctx, transactionID); err != nil {
		return err
	}
	log.Info().Str("transaction_id", transactionID.String()).Msg("transaction marked failed")
	return nil
}

// GetTransaction returns a transaction by id
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// GetTransactionByOrderRef returns the transaction opened for a gateway
// order id
func (s *Service) GetTransactionByOrderRef(ctx context.Context, orderRef string) (*Transaction, error) {
	t, err := s.repo.GetByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// TransferPoints atomically moves points between two users
func (s *Service) TransferPoints(ctx context.Context, fromID, toID uuid.UUID, amount int64, reference string) (*TransferResult, error) {
	result, err := s.repo.Transfer(ctx, fromID, toID, amount, reference)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("from_user_id", fromID.String()).
		Str("to_user_id", toID.String()).
		Int64("amount", amount).
		Str("reference", reference).
		Msg("points transferred")
	return result, nil
}

// TransferPointsTx moves points within a caller-owned database transaction.
// Used when the transfer must commit or abort together with other writes
// (swap settlement).
func (s *Service) TransferPointsTx(ctx context.Context, tx *sqlx.Tx, fromID, toID uuid.UUID, amount int64, reference string) (*TransferResult, error) {
	return s.repo.TransferTx(ctx, tx, fromID, toID, amount, reference)
}

// GetBalance returns the user's points balance
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// ListTransactions returns a page of the user's history plus the total count
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, f Filter, limit, offset int) ([]Transaction, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, f, limit, offset)
}
