package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/service/session"
	"github.com/heartmarshall/memorycare-backend/internal/transport/middleware"
)

type sessionService interface {
	Create(ctx context.Context, input session.CreateInput) (*domain.Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	GetDetail(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	SetActivation(ctx context.Context, sessionID uuid.UUID, active bool) (*domain.Session, error)
	SubmitDescription(ctx context.Context, input session.SubmitDescriptionInput) (*session.DescriptionResult, error)
	RetryScoring(ctx context.Context, sessionID, imageID uuid.UUID) (*session.DescriptionResult, error)
	AddDoctorNote(ctx context.Context, input session.AddNoteInput) (*domain.Session, error)
	ReplaceDoctorNotes(ctx context.Context, input session.ReplaceNotesInput) (*domain.Session, error)
	ListForPatient(ctx context.Context, input session.ListInput) ([]domain.Session, error)
	ListForCaregiver(ctx context.Context, caregiverID uuid.UUID, limit int) ([]domain.Session, error)
}

// SessionHandler serves assessment session endpoints.
type SessionHandler struct {
	svc   sessionService
	links careLinks
	log   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(svc sessionService, links careLinks, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, links: links, log: logger.With("handler", "session")}
}

type createSessionRequest struct {
	PatientID uuid.UUID   `json:"patient_id"`
	ImageIDs  []uuid.UUID `json:"image_ids"`
}

// Create handles POST /sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireRole(r.Context(), domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caregiverID, _ := caller(r.Context())
	sess, err := h.svc.Create(r.Context(), session.CreateInput{
		PatientID:   req.PatientID,
		CaregiverID: caregiverID,
		ImageIDs:    req.ImageIDs,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(*sess))
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetDetail(r.Context(), sessionID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := canViewPatient(r.Context(), h.links, detail.Session.PatientID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	_, role := caller(r.Context())
	writeJSON(w, http.StatusOK, toSessionDetailResponse(*detail, role != domain.RolePatient))
}

// Delete handles DELETE /sessions/{id}. Only the creating caregiver or an
// administrator may delete.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	sess, err := h.svc.Get(r.Context(), sessionID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if id, role := caller(r.Context()); role != domain.RoleAdmin && sess.CaregiverID != id {
		handleError(w, r, h.log, domain.ErrForbidden)
		return
	}

	if err := h.svc.Delete(r.Context(), sessionID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type activationRequest struct {
	Active *bool `json:"active"`
}

// SetActivation handles PUT /sessions/{id}/activation.
func (h *SessionHandler) SetActivation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req activationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		handleError(w, r, h.log, domain.NewValidationError("active", "required"))
		return
	}
	if err := h.managePatientOf(r.Context(), sessionID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	sess, err := h.svc.SetActivation(r.Context(), sessionID, *req.Active)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(*sess))
}

type submitDescriptionRequest struct {
	ImageID uuid.UUID `json:"image_id"`
	Text    string    `json:"text"`
}

// SubmitDescription handles POST /sessions/{id}/descriptions. The call
// returns once the description is scored; a scorer failure answers 502 and
// the description stays stored for a rescore.
func (h *SessionHandler) SubmitDescription(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RolePatient); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	var req submitDescriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patientID, _ := caller(r.Context())
	result, err := h.svc.SubmitDescription(r.Context(), session.SubmitDescriptionInput{
		SessionID: sessionID,
		ImageID:   req.ImageID,
		PatientID: patientID,
		Text:      req.Text,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDescriptionResult(result))
}

// Rescore handles POST /sessions/{id}/images/{imageId}/rescore.
func (h *SessionHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := pathUUID(w, r, "imageId")
	if !ok {
		return
	}
	if err := h.managePatientOf(r.Context(), sessionID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	result, err := h.svc.RetryScoring(r.Context(), sessionID, imageID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toDescriptionResult(result))
}

type addNoteRequest struct {
	Text string `json:"text"`
}

// AddNote handles POST /sessions/{id}/notes.
func (h *SessionHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleDoctor); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	var req addNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	authorID, _ := caller(r.Context())
	sess, err := h.svc.AddDoctorNote(r.Context(), session.AddNoteInput{SessionID: sessionID, AuthorID: authorID, Text: req.Text})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(*sess))
}

type noteRequest struct {
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type replaceNotesRequest struct {
	Notes []noteRequest `json:"notes"`
}

// ReplaceNotes handles PUT /sessions/{id}/notes.
func (h *SessionHandler) ReplaceNotes(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req replaceNotesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleDoctor, domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if _, role := caller(r.Context()); role == domain.RoleCaregiver {
		if err := h.managePatientOf(r.Context(), sessionID); err != nil {
			handleError(w, r, h.log, err)
			return
		}
	}

	notes := make([]session.NoteInput, len(req.Notes))
	for i, n := range req.Notes {
		notes[i] = session.NoteInput(n)
	}
	sess, err := h.svc.ReplaceDoctorNotes(r.Context(), session.ReplaceNotesInput{SessionID: sessionID, Notes: notes})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(*sess))
}

// ListForPatient handles GET /patients/{id}/sessions?status=&active=true&limit=.
func (h *SessionHandler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := canViewPatient(r.Context(), h.links, patientID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	q := r.URL.Query()
	input := session.ListInput{
		PatientID:  patientID,
		ActiveOnly: q.Get("active") == "true",
		Limit:      queryInt(r, "limit", 50),
	}
	if v := q.Get("status"); v != "" {
		status := domain.SessionStatus(v)
		input.Status = &status
	}

	sessions, err := h.svc.ListForPatient(r.Context(), input)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionList(sessions))
}

// ListForCaregiver handles GET /caregivers/{id}/sessions. Caregivers may
// only list the sessions they created.
func (h *SessionHandler) ListForCaregiver(w http.ResponseWriter, r *http.Request) {
	caregiverID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleCaregiver, domain.RoleDoctor); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if id, role := caller(r.Context()); role == domain.RoleCaregiver && id != caregiverID {
		handleError(w, r, h.log, domain.ErrForbidden)
		return
	}

	sessions, err := h.svc.ListForCaregiver(r.Context(), caregiverID, queryInt(r, "limit", 50))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionList(sessions))
}

// managePatientOf authorizes the caller against the session's patient.
func (h *SessionHandler) managePatientOf(ctx context.Context, sessionID uuid.UUID) error {
	if err := middleware.RequireRole(ctx, domain.RoleCaregiver); err != nil {
		return err
	}
	sess, err := h.svc.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return canManagePatient(ctx, h.links, sess.PatientID)
}

func toDescriptionResult(r *session.DescriptionResult) descriptionResultResponse {
	return descriptionResultResponse{
		Description: toDescriptionResponse(*r.Description),
		Score:       toScoreResponse(*r.Score),
		Session:     toSessionResponse(*r.Session),
	}
}
