package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/service/imagepool"
	"github.com/heartmarshall/memorycare-backend/internal/transport/middleware"
)

type imageService interface {
	RequestUpload(ctx context.Context, input imagepool.RequestUploadInput) (domain.UploadTicket, error)
	Register(ctx context.Context, input imagepool.RegisterInput) (*domain.ReferenceImage, error)
	Get(ctx context.Context, imageID uuid.UUID) (*domain.ReferenceImage, error)
	List(ctx context.Context, uploaderID uuid.UUID, state *domain.ImageState) ([]domain.ReferenceImage, error)
	UpsertGroundTruth(ctx context.Context, input imagepool.GroundTruthInput) (*domain.GroundTruth, error)
	GetGroundTruth(ctx context.Context, imageID uuid.UUID) (*domain.GroundTruth, error)
	Release(ctx context.Context, imageID uuid.UUID) error
}

// ImageHandler serves reference image endpoints.
type ImageHandler struct {
	svc imageService
	log *slog.Logger
}

// NewImageHandler creates an ImageHandler.
func NewImageHandler(svc imageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{svc: svc, log: logger.With("handler", "image")}
}

type uploadRequest struct {
	ContentType string `json:"content_type"`
}

// RequestUpload handles POST /images/uploads.
func (h *ImageHandler) RequestUpload(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireRole(r.Context(), domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	var req uploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uploaderID, _ := caller(r.Context())
	ticket, err := h.svc.RequestUpload(r.Context(), imagepool.RequestUploadInput{UploaderID: uploaderID, ContentType: req.ContentType})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadTicketResponse(ticket))
}

type registerImageRequest struct {
	URL       string `json:"url"`
	ObjectKey string `json:"object_key"`
}

// Register handles POST /images.
func (h *ImageHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireRole(r.Context(), domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	var req registerImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uploaderID, _ := caller(r.Context())
	img, err := h.svc.Register(r.Context(), imagepool.RegisterInput{UploaderID: uploaderID, URL: req.URL, ObjectKey: req.ObjectKey})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toImageResponse(*img))
}

// List handles GET /images?free=true or GET /images?state=assigned_to_session.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := middleware.RequireRole(r.Context(), domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	var state *domain.ImageState
	q := r.URL.Query()
	if q.Get("free") == "true" {
		s := domain.ImageStateFree
		state = &s
	} else if v := q.Get("state"); v != "" {
		s := domain.ImageState(v)
		state = &s
	}

	uploaderID, _ := caller(r.Context())
	images, err := h.svc.List(r.Context(), uploaderID, state)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := make([]imageResponse, len(images))
	for i, img := range images {
		resp[i] = toImageResponse(img)
	}
	writeJSON(w, http.StatusOK, resp)
}

type groundTruthRequest struct {
	Description    string   `json:"description"`
	Keywords       []string `json:"keywords"`
	GuideQuestions []string `json:"guide_questions"`
}

// ownImage loads the image and checks the caller uploaded it.
func (h *ImageHandler) ownImage(ctx context.Context, imageID uuid.UUID) error {
	img, err := h.svc.Get(ctx, imageID)
	if err != nil {
		return err
	}
	if id, role := caller(ctx); role != domain.RoleAdmin && img.UploaderID != id {
		return domain.ErrForbidden
	}
	return nil
}

// PutGroundTruth handles PUT /images/{id}/ground-truth.
func (h *ImageHandler) PutGroundTruth(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	var req groundTruthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ownImage(r.Context(), imageID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	gt, err := h.svc.UpsertGroundTruth(r.Context(), imagepool.GroundTruthInput{
		ImageID:        imageID,
		Description:    req.Description,
		Keywords:       req.Keywords,
		GuideQuestions: req.GuideQuestions,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroundTruthResponse(*gt))
}

// GetGroundTruth handles GET /images/{id}/ground-truth.
func (h *ImageHandler) GetGroundTruth(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleDoctor, domain.RoleCaregiver); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if _, role := caller(r.Context()); role == domain.RoleCaregiver {
		if err := h.ownImage(r.Context(), imageID); err != nil {
			handleError(w, r, h.log, err)
			return
		}
	}

	gt, err := h.svc.GetGroundTruth(r.Context(), imageID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroundTruthResponse(*gt))
}

// Release handles POST /admin/images/{id}/release.
func (h *ImageHandler) Release(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	if err := h.svc.Release(r.Context(), imageID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
