package swap

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/notification"
)

// Store is the swap persistence surface the service needs
type Store interface {
	Create(ctx context.Context, sr *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]Request, error)
	ListOutgoing(ctx context.Context, requesterID uuid.UUID) ([]Request, error)
	Settle(ctx context.Context, swapID uuid.UUID, price int64, transfer PointsTransferrer) (*SettlementResult, error)
	Reject(ctx context.Context, swapID uuid.UUID) error
}

// ItemGetter looks up items for swap guards
type ItemGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error)
}

// Service contains swap business logic
type Service struct {
	store  Store
	items  ItemGetter
	ledger PointsTransferrer
	events notification.Emitter
}

// NewService creates swap service
func NewService(store Store, items ItemGetter, ledger PointsTransferrer, events notification.Emitter) *Service {
	return &Service{store: store, items: items, ledger: ledger, events: events}
}

func (s *Service) emit(name string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Emit(notification.Event{Name: name, Payload: payload})
}

// Create opens a pending swap request toward an approved item
func (s *Service) Create(ctx context.Context, requesterID, itemID uuid.UUID) (*Request, error) {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, item.ErrItemNotFound
	}
	if !it.Available() {
		return nil, ErrItemNotAvailable
	}
	if it.OwnerID == requesterID {
		return nil, ErrSelfSwap
	}

	sr := &Request{
		ItemID:      itemID,
		RequesterID: requesterID,
		OwnerID:     it.OwnerID,
	}
	if err := s.store.Create(ctx, sr); err != nil {
		return nil, err
	}
	log.Info().
		Str("swap_id", sr.ID.String()).
		Str("item_id", itemID.String()).
		Str("requester_id", requesterID.String()).
		Msg("swap request created")
	s.emit(notification.EventSwapCreated, map[string]interface{}{
		"id":           sr.ID,
		"item_id":      sr.ItemID,
		"owner_id":     sr.OwnerID,
		"requester_id": sr.RequesterID,
	})
	return sr, nil
}

// Approve settles a pending swap request. Only the item owner can approve.
// The item flips to swapped, the requester pays the item's points price, and
// competing pending requests for the same item are auto-rejected, all in one
// database transaction.
func (s *Service) Approve(ctx context.Context, swapID, actorID uuid.UUID) (*SettlementResult, error) {
	sr, err := s.store.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return nil, ErrSwapNotFound
	}
	if sr.OwnerID != actorID {
		return nil, ErrNotSwapOwner
	}
	if sr.Status != StatusPending {
		return nil, ErrInvalidState
	}

	it, err := s.items.GetByID(ctx, sr.ItemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrItemNotAvailable
	}

	result, err := s.store.Settle(ctx, swapID, it.PointsPrice, s.ledger)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("swap_id", swapID.String()).
		Str("item_id", sr.ItemID.String()).
		Int64("price", it.PointsPrice).
		Int("auto_rejected", len(result.RejectedIDs)).
		Msg("swap settled")

	s.emit(notification.EventSwapStatus, map[string]interface{}{
		"id":     swapID,
		"status": StatusApproved,
	})
	s.emit(notification.EventItemStatus, map[string]interface{}{
		"id":     sr.ItemID,
		"status": item.StatusSwapped,
	})
	for _, rejectedID := range result.RejectedIDs {
		s.emit(notification.EventSwapStatus, map[string]interface{}{
			"id":     rejectedID,
			"status": StatusRejected,
		})
	}
	return result, nil
}

// Reject declines a pending swap request. Only the item owner can reject.
func (s *Service) Reject(ctx context.Context, swapID, actorID uuid.UUID) (*Request, error) {
	sr, err := s.store.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return nil, ErrSwapNotFound
	}
	if sr.OwnerID != actorID {
		return nil, ErrNotSwapOwner
	}

	if err := s.store.Reject(ctx, swapID); err != nil {
		return nil, err
	}
	sr.Status = StatusRejected

	log.Info().
		Str("swap_id", swapID.String()).
		Msg("swap request rejected")
	s.emit(notification.EventSwapStatus, map[string]interface{}{
		"id":     swapID,
		"status": StatusRejected,
	})
	return sr, nil
}

// ListForUser returns the user's incoming and outgoing swap requests
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) (incoming, outgoing []Request, err error) {
	incoming, err = s.store.ListIncoming(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	outgoing, err = s.store.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return incoming, outgoing, nil
}
