package imagepool

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// RequestUpload issues a presigned upload URL under the uploader's prefix.
// The image is registered separately once the upload has finished.
func (s *Service) RequestUpload(ctx context.Context, input RequestUploadInput) (domain.UploadTicket, error) {
	if err := input.Validate(); err != nil {
		return domain.UploadTicket{}, err
	}
	if s.storage == nil {
		return domain.UploadTicket{}, domain.NewUpstreamError("storage", fmt.Errorf("object storage is not configured"))
	}

	key := path.Join("images", input.UploaderID.String(), uuid.New().String()+allowedContentTypes[input.ContentType])

	presignCtx := ctx
	if s.storageTimeout > 0 {
		var cancel context.CancelFunc
		presignCtx, cancel = context.WithTimeout(ctx, s.storageTimeout)
		defer cancel()
	}

	ticket, err := s.storage.PresignUpload(presignCtx, key, input.ContentType)
	if err != nil {
		return domain.UploadTicket{}, err
	}
	return ticket, nil
}

// Register records an uploaded image in the free state.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.ReferenceImage, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	img := domain.ReferenceImage{
		ID:         uuid.New(),
		URL:        strings.TrimSpace(input.URL),
		UploaderID: input.UploaderID,
		State:      domain.ImageStateFree,
		UploadedAt: s.now(),
	}

	if key := strings.TrimSpace(input.ObjectKey); key != "" {
		if !strings.HasPrefix(key, path.Join("images", input.UploaderID.String())+"/") {
			return nil, domain.NewValidationError("object_key", "not issued to this uploader")
		}
		img.ObjectKey = &key
		if img.URL == "" {
			if s.storage == nil {
				return nil, domain.NewValidationError("url", "required when object storage is not configured")
			}
			img.URL = s.storage.PublicURL(key)
		}
	}

	var created *domain.ReferenceImage
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.images.Create(txCtx, img)
		if err != nil {
			return fmt.Errorf("create image: %w", err)
		}

		return s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    input.UploaderID,
			EntityType: domain.EntityTypeImage,
			EntityID:   &created.ID,
			Action:     domain.AuditActionCreate,
			Changes: map[string]any{
				"url": created.URL,
			},
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "image registered",
		slog.String("image_id", created.ID.String()),
		slog.String("uploader_id", input.UploaderID.String()),
	)
	return created, nil
}
