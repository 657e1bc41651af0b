package item

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
	"github.com/rewear/rewear-api/internal/pkg/validator"
)

// CreateItemRequest is the payload for listing a new item
type CreateItemRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,max=60"`
	Size        string `json:"size" validate:"required,max=20"`
	Condition   string `json:"condition" validate:"required,condition"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	PointsPrice int64  `json:"points_price" validate:"gte=0"`
}

// Handler handles item HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates item handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /items
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	created, err := h.svc.Create(r.Context(), userID, CreateItemInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Size:        req.Size,
		Condition:   req.Condition,
		ImageURL:    req.ImageURL,
		PointsPrice: req.PointsPrice,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidPrice) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, created)
}

// Get handles GET /items/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid item id")
		return
	}

	found, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, found)
}

// List handles GET /items. Without a status filter only approved items are
// returned; filtering by any other status is the moderation queue and stays
// admin only, the public catalog never shows unmoderated listings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	status := Status(r.URL.Query().Get("status"))
	if status == "" {
		status = StatusApproved
	}
	if status != StatusApproved && middleware.GetRole(r.Context()) != "admin" {
		response.Forbidden(w, "status filter requires admin role")
		return
	}

	items, total, err := h.svc.List(r.Context(), status, limit, (page-1)*limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	pages := (total + limit - 1) / limit
	response.WithMeta(w, items, response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	})
}

// ListMine handles GET /items/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	items, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// Approve handles POST /items/{id}/approve (admin)
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, StatusApproved)
}

// Reject handles POST /items/{id}/reject (admin)
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, StatusRejected)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, to Status) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid item id")
		return
	}

	var moderated *Item
	if to == StatusApproved {
		moderated, err = h.svc.Approve(r.Context(), id)
	} else {
		moderated, err = h.svc.Reject(r.Context(), id)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrInvalidState):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, moderated)
}

// Delete handles DELETE /items/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid item id")
		return
	}

	isAdmin := middleware.GetRole(r.Context()) == "admin"
	if err := h.svc.Delete(r.Context(), id, userID, isAdmin); err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotItemOwner):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// Routes mounts item routes. The listing route takes optional auth so admins
// can reach the moderation filters with the same endpoint.
func (h *Handler) Routes(optionalAuthMiddleware, authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(optionalAuthMiddleware).Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/mine", h.ListMine)
		r.Delete("/{id}", h.Delete)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Post("/{id}/approve", h.Approve)
			r.Post("/{id}/reject", h.Reject)
		})
	})

	return r
}
