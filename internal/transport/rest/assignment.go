package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/service/assignment"
	"github.com/heartmarshall/memorycare-backend/internal/transport/middleware"
)

type assignmentService interface {
	Assign(ctx context.Context, input assignment.AssignInput) (*domain.CareAssignment, error)
	Remove(ctx context.Context, input assignment.RemoveInput) error
	ListCaregiversOf(ctx context.Context, patientID uuid.UUID) ([]domain.Profile, error)
	PatientOf(ctx context.Context, caregiverID uuid.UUID) (uuid.UUID, error)
}

// AssignmentHandler serves care-assignment endpoints.
type AssignmentHandler struct {
	svc assignmentService
	log *slog.Logger
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(svc assignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, log: logger.With("handler", "assignment")}
}

type assignmentRequest struct {
	CaregiverID uuid.UUID `json:"caregiver_id"`
	PatientID   uuid.UUID `json:"patient_id"`
}

// authorize lets caregivers act only on their own assignment.
func (h *AssignmentHandler) authorize(ctx context.Context, caregiverID uuid.UUID) error {
	if err := middleware.RequireRole(ctx, domain.RoleCaregiver); err != nil {
		return err
	}
	if id, role := caller(ctx); role == domain.RoleCaregiver && id != caregiverID {
		return domain.ErrForbidden
	}
	return nil
}

// Assign handles POST /assignments.
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.authorize(r.Context(), req.CaregiverID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	a, err := h.svc.Assign(r.Context(), assignment.AssignInput{CaregiverID: req.CaregiverID, PatientID: req.PatientID})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, assignmentResponse(*a))
}

// Remove handles DELETE /assignments. Removing a missing link succeeds.
func (h *AssignmentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.authorize(r.Context(), req.CaregiverID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	if err := h.svc.Remove(r.Context(), assignment.RemoveInput{CaregiverID: req.CaregiverID, PatientID: req.PatientID}); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Caregivers handles GET /patients/{id}/caregivers.
func (h *AssignmentHandler) Caregivers(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleDoctor, domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	caregivers, err := h.svc.ListCaregiversOf(r.Context(), patientID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := make([]profileResponse, len(caregivers))
	for i, p := range caregivers {
		resp[i] = toProfileResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id":     patientID,
		"caregivers":     resp,
		"max_caregivers": domain.MaxCaregiversPerPatient,
	})
}

type availabilityResponse struct {
	CaregiverID uuid.UUID  `json:"caregiver_id"`
	Available   bool       `json:"available"`
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
}

// Availability handles GET /caregivers/{id}/availability.
func (h *AssignmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	caregiverID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleDoctor, domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	patientID, err := h.svc.PatientOf(r.Context(), caregiverID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusOK, availabilityResponse{CaregiverID: caregiverID, Available: true})
	case err != nil:
		handleError(w, r, h.log, err)
	default:
		writeJSON(w, http.StatusOK, availabilityResponse{CaregiverID: caregiverID, PatientID: &patientID})
	}
}
