package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// DescriptionResult is the outcome of a scored description. Session is the
// state after the score was stored, completado when it was the last one.
type DescriptionResult struct {
	Description *domain.Description
	Score       *domain.Score
	Session     *domain.Session
}

// SubmitDescription stores a patient's description of one session image,
// has it scored, and completes the session when all images are scored.
//
// The description is stored before the scorer is called. On a scorer
// failure it stays stored and unscored, the error wraps domain.ErrUpstream,
// and RetryScoring re-issues only that call.
func (s *Service) SubmitDescription(ctx context.Context, input SubmitDescriptionInput) (*DescriptionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var (
		desc *domain.Description
		gt   *domain.GroundTruth
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.sessions.GetForUpdate(txCtx, input.SessionID)
		if err != nil {
			return err
		}
		if sess.PatientID != input.PatientID {
			return fmt.Errorf("session %s belongs to another patient: %w", sess.ID, domain.ErrForbidden)
		}
		if !sess.HasImage(input.ImageID) {
			return domain.ErrImageNotInSession
		}

		// A repeated image is reported as such even once the session has
		// completed.
		if _, err := s.descriptions.GetBySessionImage(txCtx, sess.ID, input.ImageID); err == nil {
			return domain.ErrDescriptionAlreadyExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get description: %w", err)
		}

		if sess.IsCompleted() {
			return domain.ErrSessionFinalized
		}
		if !sess.Active {
			return domain.ErrSessionNotActive
		}

		gt, err = s.images.GetGroundTruth(txCtx, input.ImageID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("image %s has no ground truth: %w", input.ImageID, domain.ErrConflict)
			}
			return fmt.Errorf("get ground truth: %w", err)
		}

		now := s.now()
		desc, err = s.descriptions.Create(txCtx, domain.Description{
			ID:               uuid.New(),
			SessionID:        sess.ID,
			ImageID:          input.ImageID,
			PatientID:        input.PatientID,
			Text:             strings.TrimSpace(input.Text),
			SubmittedAt:      now,
			ScoringClaimedAt: &now,
		})
		if err != nil {
			return err
		}

		if sess.Status == domain.SessionStatusPending {
			next, err := domain.Transition(sess.Status, domain.SessionStatusInProgress)
			if err != nil {
				return err
			}
			if err := s.sessions.UpdateStatus(txCtx, sess.ID, next, now); err != nil {
				return fmt.Errorf("update status: %w", err)
			}
		}

		return s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    input.PatientID,
			EntityType: domain.EntityTypeDescription,
			EntityID:   &desc.ID,
			Action:     domain.AuditActionCreate,
			Changes: map[string]any{
				"session_id": sess.ID.String(),
				"image_id":   input.ImageID.String(),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "description submitted",
		slog.String("session_id", input.SessionID.String()),
		slog.String("image_id", input.ImageID.String()),
		slog.String("description_id", desc.ID.String()),
	)

	return s.scoreAndComplete(ctx, desc, *gt)
}

// RetryScoring re-issues the scorer call for a stored, unscored
// description. At most one scorer call per description is in flight: a
// concurrent retry fails with domain.ErrScoringInProgress. Retrying an
// already scored description returns the stored result.
func (s *Service) RetryScoring(ctx context.Context, sessionID, imageID uuid.UUID) (*DescriptionResult, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasImage(imageID) {
		return nil, domain.ErrImageNotInSession
	}

	desc, err := s.descriptions.GetBySessionImage(ctx, sessionID, imageID)
	if err != nil {
		return nil, err
	}

	scores, err := s.descriptions.ListScoresBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	if score, ok := scores[desc.ID]; ok {
		// Completion may have failed after the last score was stored.
		if !sess.IsCompleted() {
			rates, ready, err := s.sessionRates(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			if ready {
				if sess, err = s.completeSession(ctx, desc.PatientID, sessionID, rates); err != nil {
					return nil, err
				}
			}
		}
		return &DescriptionResult{Description: desc, Score: &score, Session: sess}, nil
	}

	now := s.now()
	claimed, err := s.descriptions.ClaimScoring(ctx, desc.ID, now, now.Add(-s.claimTTL))
	if err != nil {
		return nil, fmt.Errorf("claim scoring: %w", err)
	}
	if !claimed {
		return nil, domain.ErrScoringInProgress
	}

	gt, err := s.images.GetGroundTruth(ctx, imageID)
	if err != nil {
		s.releaseClaim(ctx, desc.ID)
		return nil, fmt.Errorf("get ground truth: %w", err)
	}

	s.log.InfoContext(ctx, "scoring retried",
		slog.String("session_id", sessionID.String()),
		slog.String("description_id", desc.ID.String()),
	)
	return s.scoreAndComplete(ctx, desc, *gt)
}
