package imagepool

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Get returns one image.
func (s *Service) Get(ctx context.Context, imageID uuid.UUID) (*domain.ReferenceImage, error) {
	return s.images.GetByID(ctx, imageID)
}

// ListFree returns the uploader's images that can still be used in a session.
func (s *Service) ListFree(ctx context.Context, uploaderID uuid.UUID) ([]domain.ReferenceImage, error) {
	state := domain.ImageStateFree
	return s.List(ctx, uploaderID, &state)
}

// List returns the uploader's images, optionally filtered by state.
func (s *Service) List(ctx context.Context, uploaderID uuid.UUID, state *domain.ImageState) ([]domain.ReferenceImage, error) {
	if state != nil && !state.IsValid() {
		return nil, domain.NewValidationError("state", "invalid image state")
	}
	images, err := s.images.ListByUploader(ctx, uploaderID, state)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}
