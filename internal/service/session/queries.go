package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Get returns a session without its items.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// GetDetail returns a session with each image's ground truth, description
// and score, in the session's image order.
func (s *Service) GetDetail(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	images, err := s.images.GetByIDs(ctx, sess.ImageIDs)
	if err != nil {
		return nil, fmt.Errorf("get images: %w", err)
	}
	truths, err := s.images.GetGroundTruths(ctx, sess.ImageIDs)
	if err != nil {
		return nil, fmt.Errorf("get ground truths: %w", err)
	}
	descs, err := s.descriptions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list descriptions: %w", err)
	}
	scores, err := s.descriptions.ListScoresBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	byImage := lo.KeyBy(descs, func(d domain.Description) uuid.UUID { return d.ImageID })
	imageByID := lo.KeyBy(images, func(img domain.ReferenceImage) uuid.UUID { return img.ID })

	items := make([]domain.SessionItem, 0, len(sess.ImageIDs))
	for _, imageID := range sess.ImageIDs {
		item := domain.SessionItem{Image: imageByID[imageID]}
		if gt, ok := truths[imageID]; ok {
			item.GroundTruth = &gt
		}
		if d, ok := byImage[imageID]; ok {
			item.Description = &d
			if sc, ok := scores[d.ID]; ok {
				item.Score = &sc
			}
		}
		items = append(items, item)
	}

	return &domain.SessionDetail{Session: *sess, Items: items}, nil
}

// ListForPatient returns a patient's sessions, newest first.
func (s *Service) ListForPatient(ctx context.Context, input ListInput) ([]domain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.List(ctx, domain.SessionFilter{
		PatientID:  &input.PatientID,
		Status:     input.Status,
		ActiveOnly: input.ActiveOnly,
		Limit:      input.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListForCaregiver returns the sessions a caregiver created, newest first.
func (s *Service) ListForCaregiver(ctx context.Context, caregiverID uuid.UUID, limit int) ([]domain.Session, error) {
	sessions, err := s.sessions.List(ctx, domain.SessionFilter{
		CaregiverID: &caregiverID,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
