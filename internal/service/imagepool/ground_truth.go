package imagepool

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

// UpsertGroundTruth sets the reference description of an image. The latest
// write wins.
func (s *Service) UpsertGroundTruth(ctx context.Context, input GroundTruthInput) (*domain.GroundTruth, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	questions := make([]string, 0, len(input.GuideQuestions))
	for _, q := range input.GuideQuestions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}

	var saved *domain.GroundTruth
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.images.GetByID(txCtx, input.ImageID); err != nil {
			return err
		}

		var err error
		saved, err = s.images.UpsertGroundTruth(txCtx, domain.GroundTruth{
			ID:             uuid.New(),
			ImageID:        input.ImageID,
			Description:    strings.TrimSpace(input.Description),
			Keywords:       domain.NormalizeKeywords(input.Keywords),
			GuideQuestions: questions,
			UpdatedAt:      s.now(),
		})
		if err != nil {
			return fmt.Errorf("upsert ground truth: %w", err)
		}

		return s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actorID(txCtx),
			EntityType: domain.EntityTypeGroundTruth,
			EntityID:   &input.ImageID,
			Action:     domain.AuditActionUpdate,
			Changes: map[string]any{
				"keywords": saved.Keywords,
			},
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "ground truth saved",
		slog.String("image_id", input.ImageID.String()),
		slog.Int("keywords", len(saved.Keywords)),
	)
	return saved, nil
}

// GetGroundTruth returns the reference description of an image.
func (s *Service) GetGroundTruth(ctx context.Context, imageID uuid.UUID) (*domain.GroundTruth, error) {
	return s.images.GetGroundTruth(ctx, imageID)
}

func actorID(ctx context.Context) uuid.UUID {
	id, _ := ctxutil.UserIDFromCtx(ctx)
	return id
}
