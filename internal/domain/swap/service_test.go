package swap_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/notification"
	"github.com/rewear/rewear-api/internal/domain/swap"
)

type testSwapStore struct {
	requests  map[uuid.UUID]*swap.Request
	createErr error
	settled   *swap.SettlementResult
	settleErr error
}

func (s *testSwapStore) Create(ctx context.Context, sr *swap.Request) error {
	if s.createErr != nil {
		return s.createErr
	}
	if sr.ID == uuid.Nil {
		sr.ID = uuid.New()
	}
	sr.Status = swap.StatusPending
	if s.requests == nil {
		s.requests = map[uuid.UUID]*swap.Request{}
	}
	s.requests[sr.ID] = sr
	return nil
}

func (s *testSwapStore) GetByID(ctx context.Context, id uuid.UUID) (*swap.Request, error) {
	return s.requests[id], nil
}

func (s *testSwapStore) ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]swap.Request, error) {
	return nil, nil
}

func (s *testSwapStore) ListOutgoing(ctx context.Context, requesterID uuid.UUID) ([]swap.Request, error) {
	return nil, nil
}

func (s *testSwapStore) Settle(ctx context.Context, swapID uuid.UUID, price int64, transfer swap.PointsTransferrer) (*swap.SettlementResult, error) {
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	return s.settled, nil
}

func (s *testSwapStore) Reject(ctx context.Context, swapID uuid.UUID) error {
	sr, ok := s.requests[swapID]
	if !ok {
		return swap.ErrSwapNotFound
	}
	if sr.Status != swap.StatusPending {
		return swap.ErrInvalidState
	}
	sr.Status = swap.StatusRejected
	return nil
}

type testItemGetter struct {
	items map[uuid.UUID]*item.Item
}

func (g *testItemGetter) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	return g.items[id], nil
}

type recordingEmitter struct {
	events []notification.Event
}

func (e *recordingEmitter) Emit(event notification.Event) {
	e.events = append(e.events, event)
}

func newFixture() (*testSwapStore, *testItemGetter, *recordingEmitter, *swap.Service) {
	store := &testSwapStore{requests: map[uuid.UUID]*swap.Request{}}
	items := &testItemGetter{items: map[uuid.UUID]*item.Item{}}
	emitter := &recordingEmitter{}
	svc := swap.NewService(store, items, nil, emitter)
	return store, items, emitter, svc
}

func TestCreateSwapOnOwnItem(t *testing.T) {
	_, items, _, svc := newFixture()

	owner := uuid.New()
	itemID := uuid.New()
	items.items[itemID] = &item.Item{ID: itemID, OwnerID: owner, Status: item.StatusApproved}

	_, err := svc.Create(context.Background(), owner, itemID)
	if !errors.Is(err, swap.ErrSelfSwap) {
		t.Fatalf("expected ErrSelfSwap, got %v", err)
	}
}

func TestCreateSwapOnUnavailableItem(t *testing.T) {
	_, items, _, svc := newFixture()

	itemID := uuid.New()
	items.items[itemID] = &item.Item{ID: itemID, OwnerID: uuid.New(), Status: item.StatusPending}

	_, err := svc.Create(context.Background(), uuid.New(), itemID)
	if !errors.Is(err, swap.ErrItemNotAvailable) {
		t.Fatalf("expected ErrItemNotAvailable, got %v", err)
	}
}

func TestCreateSwapOnMissingItem(t *testing.T) {
	_, _, _, svc := newFixture()

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, item.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCreateSwapDuplicatePending(t *testing.T) {
	store, items, _, svc := newFixture()

	itemID := uuid.New()
	items.items[itemID] = &item.Item{ID: itemID, OwnerID: uuid.New(), Status: item.StatusApproved}
	store.createErr = swap.ErrDuplicatePending

	_, err := svc.Create(context.Background(), uuid.New(), itemID)
	if !errors.Is(err, swap.ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}
}

func TestCreateSwapEmitsEvent(t *testing.T) {
	_, items, emitter, svc := newFixture()

	itemID := uuid.New()
	items.items[itemID] = &item.Item{ID: itemID, OwnerID: uuid.New(), Status: item.StatusApproved}

	sr, err := svc.Create(context.Background(), uuid.New(), itemID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sr.Status != swap.StatusPending {
		t.Fatalf("expected pending status, got %s", sr.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].Name != notification.EventSwapCreated {
		t.Fatalf("expected one swap:created event, got %+v", emitter.events)
	}
}

func TestApproveByNonOwner(t *testing.T) {
	store, _, _, svc := newFixture()

	swapID := uuid.New()
	store.requests[swapID] = &swap.Request{ID: swapID, OwnerID: uuid.New(), Status: swap.StatusPending}

	_, err := svc.Approve(context.Background(), swapID, uuid.New())
	if !errors.Is(err, swap.ErrNotSwapOwner) {
		t.Fatalf("expected ErrNotSwapOwner, got %v", err)
	}
}

func TestApproveDecidedRequest(t *testing.T) {
	store, _, _, svc := newFixture()

	owner := uuid.New()
	swapID := uuid.New()
	store.requests[swapID] = &swap.Request{ID: swapID, OwnerID: owner, Status: swap.StatusRejected}

	_, err := svc.Approve(context.Background(), swapID, owner)
	if !errors.Is(err, swap.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestApproveMissingRequest(t *testing.T) {
	_, _, _, svc := newFixture()

	_, err := svc.Approve(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, swap.ErrSwapNotFound) {
		t.Fatalf("expected ErrSwapNotFound, got %v", err)
	}
}

func TestApproveEmitsStatusEvents(t *testing.T) {
	store, items, emitter, svc := newFixture()

	owner := uuid.New()
	itemID := uuid.New()
	swapID := uuid.New()
	loserID := uuid.New()
	items.items[itemID] = &item.Item{ID: itemID, OwnerID: owner, PointsPrice: 25, Status: item.StatusApproved}
	store.requests[swapID] = &swap.Request{ID: swapID, ItemID: itemID, OwnerID: owner, RequesterID: uuid.New(), Status: swap.StatusPending}
	store.settled = &swap.SettlementResult{
		Request:     store.requests[swapID],
		RejectedIDs: []uuid.UUID{loserID},
	}

	result, err := svc.Approve(context.Background(), swapID, owner)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if len(result.RejectedIDs) != 1 {
		t.Fatalf("expected one auto-rejected request, got %d", len(result.RejectedIDs))
	}

	// swap approved + item swapped + one rejection for the losing request
	if len(emitter.events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(emitter.events), emitter.events)
	}
	if emitter.events[0].Name != notification.EventSwapStatus {
		t.Fatalf("expected swap:status first, got %s", emitter.events[0].Name)
	}
	if emitter.events[1].Name != notification.EventItemStatus {
		t.Fatalf("expected item:status second, got %s", emitter.events[1].Name)
	}
}

func TestRejectByNonOwner(t *testing.T) {
	store, _, _, svc := newFixture()

	swapID := uuid.New()
	store.requests[swapID] = &swap.Request{ID: swapID, OwnerID: uuid.New(), Status: swap.StatusPending}

	_, err := svc.Reject(context.Background(), swapID, uuid.New())
	if !errors.Is(err, swap.ErrNotSwapOwner) {
		t.Fatalf("expected ErrNotSwapOwner, got %v", err)
	}
}

func TestRejectDecidedRequest(t *testing.T) {
	store, _, _, svc := newFixture()

	owner := uuid.New()
	swapID := uuid.New()
	store.requests[swapID] = &swap.Request{ID: swapID, OwnerID: owner, Status: swap.StatusApproved}

	_, err := svc.Reject(context.Background(), swapID, owner)
	if !errors.Is(err, swap.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
