// Package imagepool manages reference images: registration after upload,
// the all-or-nothing reservation used by session creation, the
// administrative release, and caregiver-authored ground truths.
package imagepool

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

type imageRepo interface {
	Create(ctx context.Context, img domain.ReferenceImage) (*domain.ReferenceImage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReferenceImage, error)
	ListByUploader(ctx context.Context, uploaderID uuid.UUID, state *domain.ImageState) ([]domain.ReferenceImage, error)
	LockForReservation(ctx context.Context, ids []uuid.UUID) ([]domain.ReferenceImage, error)
	MarkAssigned(ctx context.Context, ids []uuid.UUID) (int64, error)
	MarkFree(ctx context.Context, id uuid.UUID) error
	IsLinkedToSession(ctx context.Context, id uuid.UUID) (bool, error)
	UpsertGroundTruth(ctx context.Context, gt domain.GroundTruth) (*domain.GroundTruth, error)
	GetGroundTruth(ctx context.Context, imageID uuid.UUID) (*domain.GroundTruth, error)
}

// objectStorage is optional; without it uploads go through external URLs only.
type objectStorage interface {
	PresignUpload(ctx context.Context, objectKey, contentType string) (domain.UploadTicket, error)
	PublicURL(objectKey string) string
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides image pool operations.
type Service struct {
	images         imageRepo
	storage        objectStorage
	audit          auditLogger
	tx             txManager
	log            *slog.Logger
	storageTimeout time.Duration
	now            func() time.Time
}

// NewService creates a new image pool service. storage may be nil.
func NewService(
	log *slog.Logger,
	images imageRepo,
	storage objectStorage,
	audit auditLogger,
	tx txManager,
	storageTimeout time.Duration,
) *Service {
	return &Service{
		images:         images,
		storage:        storage,
		audit:          audit,
		tx:             tx,
		log:            log.With("service", "imagepool"),
		storageTimeout: storageTimeout,
		now:            time.Now,
	}
}
