package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/service/profile"
	"github.com/heartmarshall/memorycare-backend/internal/transport/middleware"
)

type profileService interface {
	Create(ctx context.Context, input profile.CreateInput) (*domain.Profile, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Me(ctx context.Context) (*domain.Profile, error)
}

// ProfileHandler serves profile endpoints.
type ProfileHandler struct {
	svc profileService
	log *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc profileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: logger.With("handler", "profile")}
}

type createProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Create handles POST /admin/profiles.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	var req createProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.svc.Create(r.Context(), profile.CreateInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  domain.Role(req.Role),
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(*p))
}

// Me handles GET /profiles/me.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Me(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(*p))
}

// Get handles GET /profiles/{id}. Patients may only read their own profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleDoctor, domain.RoleCaregiver, domain.RolePatient); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if callerID, role := caller(r.Context()); role == domain.RolePatient && callerID != id {
		handleError(w, r, h.log, domain.ErrForbidden)
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(*p))
}
