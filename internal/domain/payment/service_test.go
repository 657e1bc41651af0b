package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/domain/notification"
	"github.com/rewear/rewear-api/internal/domain/payment"
	"github.com/rewear/rewear-api/internal/pkg/razorpay"
)

const testSecret = "test_secret"

type testGateway struct {
	lastOrder razorpay.OrderRequest
	orderErr  error
}

func (g *testGateway) KeyID() string { return "rzp_test_key" }

func (g *testGateway) CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	g.lastOrder = req
	return &razorpay.Order{ID: "order_" + uuid.NewString()[:8], Amount: req.Amount, Currency: req.Currency, Status: "created"}, nil
}

func (g *testGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifyPaymentSignature(orderID, paymentID, signature, testSecret)
}

type testLedger struct {
	byID       map[uuid.UUID]*ledger.Transaction
	byOrderRef map[string]*ledger.Transaction
	completed  map[uuid.UUID]int
	failed     map[uuid.UUID]bool
	balance    int64
}

func newTestLedger() *testLedger {
	return &testLedger{
		byID:       map[uuid.UUID]*ledger.Transaction{},
		byOrderRef: map[string]*ledger.Transaction{},
		completed:  map[uuid.UUID]int{},
		failed:     map[uuid.UUID]bool{},
	}
}

func (l *testLedger) CreatePendingTransaction(ctx context.Context, userID uuid.UUID, kind ledger.Kind, points, amount int64, orderRef, description string) (*ledger.Transaction, error) {
	t := &ledger.Transaction{ID: uuid.New(), UserID: userID, Kind: kind, Points: points, Amount: amount, Status: ledger.StatusPending}
	l.byID[t.ID] = t
	l.byOrderRef[orderRef] = t
	return t, nil
}

func (l *testLedger) GetTransactionByOrderRef(ctx context.Context, orderRef string) (*ledger.Transaction, error) {
	t, ok := l.byOrderRef[orderRef]
	if !ok {
		return nil, ledger.ErrTransactionNotFound
	}
	return t, nil
}

func (l *testLedger) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	t, ok := l.byID[id]
	if !ok {
		return nil, ledger.ErrTransactionNotFound
	}
	return t, nil
}

func (l *testLedger) CompleteTransaction(ctx context.Context, transactionID uuid.UUID, paymentRef string) (*ledger.CompletionResult, error) {
	t, ok := l.byID[transactionID]
	if !ok {
		return nil, ledger.ErrTransactionNotFound
	}
	already := l.completed[transactionID] > 0
	if !already {
		l.balance += t.Points
		t.Status = ledger.StatusCompleted
	}
	l.completed[transactionID]++
	return &ledger.CompletionResult{
		TransactionID:    transactionID,
		UserID:           t.UserID,
		Points:           t.Points,
		NewBalance:       l.balance,
		AlreadyProcessed: already,
	}, nil
}

func (l *testLedger) FailTransaction(ctx context.Context, transactionID uuid.UUID) error {
	t, ok := l.byID[transactionID]
	if !ok {
		return ledger.ErrTransactionNotFound
	}
	if t.Status != ledger.StatusPending {
		return ledger.ErrTransactionNotPending
	}
	t.Status = ledger.StatusFailed
	l.failed[transactionID] = true
	return nil
}

type recordingEmitter struct {
	events []notification.Event
}

func (e *recordingEmitter) Emit(event notification.Event) {
	e.events = append(e.events, event)
}

func TestCreateOrderChargesPaisePerPoint(t *testing.T) {
	gateway := &testGateway{}
	led := newTestLedger()
	svc := payment.NewService(gateway, led, nil)

	result, err := svc.CreateOrder(context.Background(), uuid.New(), 250, "razorpay")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if gateway.lastOrder.Amount != 25000 {
		t.Fatalf("expected 25000 paise, got %d", gateway.lastOrder.Amount)
	}
	if gateway.lastOrder.Currency != "INR" {
		t.Fatalf("expected INR, got %s", gateway.lastOrder.Currency)
	}
	if result.KeyID != "rzp_test_key" {
		t.Fatalf("expected gateway key id, got %s", result.KeyID)
	}
	if result.Points != 250 {
		t.Fatalf("expected 250 points, got %d", result.Points)
	}
}

func TestCreateOrderRejectsNonPositivePoints(t *testing.T) {
	svc := payment.NewService(&testGateway{}, newTestLedger(), nil)

	for _, points := range []int64{0, -5} {
		if _, err := svc.CreateOrder(context.Background(), uuid.New(), points, "razorpay"); !errors.Is(err, payment.ErrInvalidPoints) {
			t.Fatalf("points=%d: expected ErrInvalidPoints, got %v", points, err)
		}
	}
}

func TestVerifyPaymentCreditsOnce(t *testing.T) {
	gateway := &testGateway{}
	led := newTestLedger()
	emitter := &recordingEmitter{}
	svc := payment.NewService(gateway, led, emitter)

	order, err := svc.CreateOrder(context.Background(), uuid.New(), 100, "razorpay")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	signature := razorpay.SignPayment(order.OrderID, "pay_abc", testSecret)

	first, err := svc.VerifyPayment(context.Background(), order.OrderID, "pay_abc", signature)
	if err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if first.AlreadyProcessed || first.NewBalance != 100 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := svc.VerifyPayment(context.Background(), order.OrderID, "pay_abc", signature)
	if err != nil {
		t.Fatalf("second verify failed: %v", err)
	}
	if !second.AlreadyProcessed {
		t.Fatal("duplicate verification did not report already processed")
	}
	if second.NewBalance != 100 {
		t.Fatalf("duplicate verification changed balance: %d", second.NewBalance)
	}

	// Only the fresh completion announces payment:completed.
	completedEvents := 0
	for _, e := range emitter.events {
		if e.Name == notification.EventPaymentCompleted {
			completedEvents++
		}
	}
	if completedEvents != 1 {
		t.Fatalf("expected one payment:completed event, got %d", completedEvents)
	}
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	gateway := &testGateway{}
	led := newTestLedger()
	svc := payment.NewService(gateway, led, nil)

	order, err := svc.CreateOrder(context.Background(), uuid.New(), 100, "razorpay")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err = svc.VerifyPayment(context.Background(), order.OrderID, "pay_abc", "deadbeef")
	if !errors.Is(err, payment.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	// Transaction untouched: a legitimate retry can still settle it.
	tx, err := led.GetTransactionByOrderRef(context.Background(), order.OrderID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if tx.Status != ledger.StatusPending {
		t.Fatalf("expected transaction still pending, got %s", tx.Status)
	}
	if led.balance != 0 {
		t.Fatalf("bad signature credited balance: %d", led.balance)
	}
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	svc := payment.NewService(&testGateway{}, newTestLedger(), nil)

	// Valid signature, but no transaction ever referenced this order.
	signature := razorpay.SignPayment("order_unknown", "pay_abc", testSecret)
	_, err := svc.VerifyPayment(context.Background(), "order_unknown", "pay_abc", signature)
	if !errors.Is(err, ledger.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestFailPaymentOwnershipCheck(t *testing.T) {
	led := newTestLedger()
	svc := payment.NewService(&testGateway{}, led, nil)

	userID := uuid.New()
	order, err := svc.CreateOrder(context.Background(), userID, 50, "razorpay")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.FailPayment(context.Background(), order.TransactionID, uuid.New()); !errors.Is(err, payment.ErrNotTransactionOwner) {
		t.Fatalf("expected ErrNotTransactionOwner, got %v", err)
	}
	if err := svc.FailPayment(context.Background(), order.TransactionID, userID); err != nil {
		t.Fatalf("owner fail failed: %v", err)
	}
	if !led.failed[order.TransactionID] {
		t.Fatal("transaction not marked failed")
	}
}
