package item

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/domain/notification"
)

// Store is the item persistence surface the service needs
type Store interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Item, int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Item, error)
	SetStatus(ctx context.Context, id uuid.UUID, to Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service contains item business logic
type Service struct {
	store  Store
	events notification.Emitter
}

// NewService creates item service
func NewService(store Store, events notification.Emitter) *Service {
	return &Service{store: store, events: events}
}

func (s *Service) emit(name string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Emit(notification.Event{Name: name, Payload: payload})
}

// CreateItemInput contains data for listing a new item
type CreateItemInput struct {
	Title       string
	Description string
	Category    string
	Size        string
	Condition   string
	ImageURL    string
	PointsPrice int64
}

// Create lists a new item awaiting moderation
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input CreateItemInput) (*Item, error) {
	if input.PointsPrice < 0 {
		return nil, ErrInvalidPrice
	}

	i := &Item{
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Size:        input.Size,
		Condition:   input.Condition,
		ImageURL:    input.ImageURL,
		PointsPrice: input.PointsPrice,
	}
	if err := s.store.Create(ctx, i); err != nil {
		return nil, err
	}
	log.Info().
		Str("item_id", i.ID.String()).
		Str("owner_id", ownerID.String()).
		Int64("points_price", i.PointsPrice).
		Msg("item listed")
	return i, nil
}

// Get returns an item by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	i, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, ErrItemNotFound
	}
	return i, nil
}

// List returns a page of items filtered by status
func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]Item, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, status, limit, offset)
}

// ListMine returns the caller's items
func (s *Service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]Item, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Approve moves a pending item into the catalog. Admin only, enforced by
// routing.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.moderate(ctx, id, StatusApproved)
}

// Reject declines a pending item. Admin only, enforced by routing.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.moderate(ctx, id, StatusRejected)
}

func (s *Service) moderate(ctx context.Context, id uuid.UUID, to Status) (*Item, error) {
	if err := s.store.SetStatus(ctx, id, to); err != nil {
		return nil, err
	}
	i, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, ErrItemNotFound
	}
	log.Info().
		Str("item_id", id.String()).
		Str("status", string(to)).
		Msg("item moderated")
	s.emit(notification.EventItemStatus, map[string]interface{}{
		"id":     i.ID,
		"status": i.Status,
	})
	return i, nil
}

// Delete removes an item. The owner can delete their own items, admins can
// delete any. Pending swap requests for the item disappear with it.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID, isAdmin bool) error {
	i, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if i == nil {
		return ErrItemNotFound
	}
	if i.OwnerID != actorID && !isAdmin {
		return ErrNotItemOwner
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().
		Str("item_id", id.String()).
		Str("actor_id", actorID.String()).
		Msg("item deleted")
	s.emit(notification.EventItemDeleted, map[string]interface{}{"id": id})
	return nil
}
