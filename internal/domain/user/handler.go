package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
)

// Handler exposes the caller's profile
type Handler struct {
	repo *Repository
}

// NewHandler creates user handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Me handles GET /users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if u == nil {
		response.NotFound(w, "user not found")
		return
	}

	response.OK(w, u)
}

// Routes mounts user routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/me", h.Me)
	return r
}
