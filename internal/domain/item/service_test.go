package item_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/notification"
)

type testItemStore struct {
	items map[uuid.UUID]*item.Item
}

func newTestItemStore() *testItemStore {
	return &testItemStore{items: map[uuid.UUID]*item.Item{}}
}

func (s *testItemStore) Create(ctx context.Context, i *item.Item) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.Status = item.StatusPending
	s.items[i.ID] = i
	return nil
}

func (s *testItemStore) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	return s.items[id], nil
}

func (s *testItemStore) List(ctx context.Context, status item.Status, limit, offset int) ([]item.Item, int, error) {
	return nil, 0, nil
}

func (s *testItemStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]item.Item, error) {
	return nil, nil
}

func (s *testItemStore) SetStatus(ctx context.Context, id uuid.UUID, to item.Status) error {
	i, ok := s.items[id]
	if !ok {
		return item.ErrItemNotFound
	}
	if i.Status != item.StatusPending {
		return item.ErrInvalidState
	}
	i.Status = to
	return nil
}

func (s *testItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.items[id]; !ok {
		return item.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

type recordingEmitter struct {
	events []notification.Event
}

func (e *recordingEmitter) Emit(event notification.Event) {
	e.events = append(e.events, event)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc := item.NewService(newTestItemStore(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), item.CreateItemInput{Title: "Jacket", PointsPrice: -1})
	if !errors.Is(err, item.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestCreateStartsPending(t *testing.T) {
	store := newTestItemStore()
	svc := item.NewService(store, nil)

	created, err := svc.Create(context.Background(), uuid.New(), item.CreateItemInput{Title: "Jacket", PointsPrice: 30})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Status != item.StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
}

func TestApproveEmitsStatusEvent(t *testing.T) {
	store := newTestItemStore()
	emitter := &recordingEmitter{}
	svc := item.NewService(store, emitter)

	created, err := svc.Create(context.Background(), uuid.New(), item.CreateItemInput{Title: "Jacket"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	approved, err := svc.Approve(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != item.StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].Name != notification.EventItemStatus {
		t.Fatalf("expected one item:status event, got %+v", emitter.events)
	}
}

func TestModerateDecidedItem(t *testing.T) {
	store := newTestItemStore()
	svc := item.NewService(store, nil)

	created, _ := svc.Create(context.Background(), uuid.New(), item.CreateItemInput{Title: "Jacket"})
	if _, err := svc.Approve(context.Background(), created.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if _, err := svc.Reject(context.Background(), created.ID); !errors.Is(err, item.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestDeleteByStranger(t *testing.T) {
	store := newTestItemStore()
	svc := item.NewService(store, nil)

	owner := uuid.New()
	created, _ := svc.Create(context.Background(), owner, item.CreateItemInput{Title: "Jacket"})

	if err := svc.Delete(context.Background(), created.ID, uuid.New(), false); !errors.Is(err, item.ErrNotItemOwner) {
		t.Fatalf("expected ErrNotItemOwner, got %v", err)
	}
}

func TestDeleteByAdminEmitsEvent(t *testing.T) {
	store := newTestItemStore()
	emitter := &recordingEmitter{}
	svc := item.NewService(store, emitter)

	created, _ := svc.Create(context.Background(), uuid.New(), item.CreateItemInput{Title: "Jacket"})

	if err := svc.Delete(context.Background(), created.ID, uuid.New(), true); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if len(emitter.events) != 1 || emitter.events[0].Name != notification.EventItemDeleted {
		t.Fatalf("expected one item:deleted event, got %+v", emitter.events)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, item.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound after delete, got %v", err)
	}
}
