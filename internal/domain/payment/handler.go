package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
	"github.com/rewear/rewear-api/internal/pkg/validator"
)

// CreateOrderRequest is the payload for starting a points purchase
type CreateOrderRequest struct {
	Points        int64  `json:"points" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

// VerifyRequest is the checkout callback payload
type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// Handler handles payment HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates payment handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateOrder handles POST /payments/create-order
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), userID, req.Points, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPoints), errors.Is(err, ledger.ErrInvalidAmount):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ledger.ErrDuplicateReference):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, result)
}

// Verify handles POST /payments/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	result, err := h.svc.VerifyPayment(r.Context(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ledger.ErrTransactionNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ledger.ErrTransactionNotPending):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Fail handles POST /payments/{id}/fail
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid transaction id")
		return
	}

	if err := h.svc.FailPayment(r.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, ledger.ErrTransactionNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotTransactionOwner):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ledger.ErrTransactionNotPending):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"status": "failed"})
}

// Routes mounts payment routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/create-order", h.CreateOrder)
	r.Post("/verify", h.Verify)
	r.Post("/{id}/fail", h.Fail)
	return r
}
