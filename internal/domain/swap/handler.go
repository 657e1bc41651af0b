package swap

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
)

// CreateSwapRequest is the payload for opening a swap request
type CreateSwapRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
}

// Handler handles swap HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates swap handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /swaps
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.ItemID == uuid.Nil {
		response.BadRequest(w, "item_id is required")
		return
	}

	created, err := h.svc.Create(r.Context(), userID, req.ItemID)
	if err != nil {
		switch {
		case errors.Is(err, item.ErrItemNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrItemNotAvailable):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrSelfSwap):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrDuplicatePending):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, created)
}

// List handles GET /swaps
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	incoming, outgoing, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"incoming": incoming,
		"outgoing": outgoing,
	})
}

// Approve handles POST /swaps/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid swap id")
		return
	}

	result, err := h.svc.Approve(r.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSwapNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotSwapOwner):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidState), errors.Is(err, ErrItemNotAvailable):
			response.Conflict(w, err.Error())
		case errors.Is(err, ledger.ErrInsufficientBalance):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// Reject handles POST /swaps/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid swap id")
		return
	}

	rejected, err := h.svc.Reject(r.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSwapNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotSwapOwner):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidState):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, rejected)
}

// Routes mounts swap routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
	return r
}
