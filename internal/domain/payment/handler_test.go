package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/payment"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/razorpay"
)

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	ctx = context.WithValue(ctx, middleware.RoleKey, "user")
	return req.WithContext(ctx)
}

func TestCreateOrderHandlerValidation(t *testing.T) {
	h := payment.NewHandler(payment.NewService(&testGateway{}, newTestLedger(), nil))

	cases := []struct {
		name string
		body string
		want int
	}{
		{"garbage body", "{not json", http.StatusBadRequest},
		{"zero points", `{"points": 0, "payment_method": "razorpay"}`, http.StatusUnprocessableEntity},
		{"bad method", `{"points": 100, "payment_method": "cash"}`, http.StatusUnprocessableEntity},
		{"valid", `{"points": 100, "payment_method": "razorpay"}`, http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CreateOrder(rec, authedRequest(http.MethodPost, "/payments/create-order", tc.body))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateOrderHandlerUnauthorized(t *testing.T) {
	h := payment.NewHandler(payment.NewService(&testGateway{}, newTestLedger(), nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/create-order", strings.NewReader(`{"points": 100, "payment_method": "razorpay"}`))
	h.CreateOrder(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVerifyHandlerBadSignature(t *testing.T) {
	gateway := &testGateway{}
	led := newTestLedger()
	svc := payment.NewService(gateway, led, nil)
	h := payment.NewHandler(svc)

	order, err := svc.CreateOrder(context.Background(), uuid.New(), 100, "razorpay")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	body := `{"razorpay_order_id": "` + order.OrderID + `", "razorpay_payment_id": "pay_abc", "razorpay_signature": "deadbeef"}`
	rec := httptest.NewRecorder()
	h.Verify(rec, authedRequest(http.MethodPost, "/payments/verify", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyHandlerSuccess(t *testing.T) {
	gateway := &testGateway{}
	led := newTestLedger()
	svc := payment.NewService(gateway, led, nil)
	h := payment.NewHandler(svc)

	order, err := svc.CreateOrder(context.Background(), uuid.New(), 100, "razorpay")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	signature := razorpay.SignPayment(order.OrderID, "pay_abc", testSecret)

	body := `{"razorpay_order_id": "` + order.OrderID + `", "razorpay_payment_id": "pay_abc", "razorpay_signature": "` + signature + `"}`
	rec := httptest.NewRecorder()
	h.Verify(rec, authedRequest(http.MethodPost, "/payments/verify", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"new_balance":100`) {
		t.Fatalf("expected new_balance in response, got %s", rec.Body.String())
	}
}

func TestVerifyHandlerUnknownOrder(t *testing.T) {
	h := payment.NewHandler(payment.NewService(&testGateway{}, newTestLedger(), nil))

	signature := razorpay.SignPayment("order_missing", "pay_abc", testSecret)
	body := `{"razorpay_order_id": "order_missing", "razorpay_payment_id": "pay_abc", "razorpay_signature": "` + signature + `"}`
	rec := httptest.NewRecorder()
	h.Verify(rec, authedRequest(http.MethodPost, "/payments/verify", body))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}
