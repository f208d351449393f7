package imagepool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// TryReserve moves all given images from free to assigned_to_session, or
// none of them. It joins the caller's transaction when there is one, so a
// failure later in session creation rolls the reservation back.
func (s *Service) TryReserve(ctx context.Context, imageIDs []uuid.UUID) error {
	if err := domain.ValidateImageSelection(imageIDs); err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.images.LockForReservation(txCtx, imageIDs)
		if err != nil {
			return fmt.Errorf("lock images: %w", err)
		}
		if len(locked) != len(imageIDs) {
			return fmt.Errorf("image: %w", domain.ErrNotFound)
		}
		for i := range locked {
			if !locked[i].IsFree() {
				return domain.ErrImageAlreadyAssigned
			}
		}

		n, err := s.images.MarkAssigned(txCtx, imageIDs)
		if err != nil {
			return fmt.Errorf("mark images assigned: %w", err)
		}
		if n != int64(len(imageIDs)) {
			return domain.ErrImageAlreadyAssigned
		}
		return nil
	})
}

// Release returns an image to the free state. It is an administrative undo
// and refuses while a session still references the image.
func (s *Service) Release(ctx context.Context, imageID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.images.GetByID(txCtx, imageID); err != nil {
			return err
		}

		linked, err := s.images.IsLinkedToSession(txCtx, imageID)
		if err != nil {
			return fmt.Errorf("check session link: %w", err)
		}
		if linked {
			return fmt.Errorf("image %s is referenced by a session: %w", imageID, domain.ErrConflict)
		}

		if err := s.images.MarkFree(txCtx, imageID); err != nil {
			return fmt.Errorf("mark image free: %w", err)
		}

		return s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actorID(txCtx),
			EntityType: domain.EntityTypeImage,
			EntityID:   &imageID,
			Action:     domain.AuditActionUpdate,
			Changes: map[string]any{
				"state": map[string]any{
					"old": domain.ImageStateAssignedToSession,
					"new": domain.ImageStateFree,
				},
			},
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrNotFound) {
			s.log.ErrorContext(ctx, "release image failed",
				slog.String("image_id", imageID.String()),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	s.log.InfoContext(ctx, "image released", slog.String("image_id", imageID.String()))
	return nil
}
