package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Create opens a pending, inactive session over three free images. The
// creating caregiver must currently look after the patient. The images are
// reserved in the same transaction as the session insert, so either both
// happen or neither does.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	linked, err := s.links.IsLinked(ctx, input.CaregiverID, input.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check care link: %w", err)
	}
	if !linked {
		return nil, fmt.Errorf("caregiver %s does not look after patient %s: %w",
			input.CaregiverID, input.PatientID, domain.ErrForbidden)
	}

	var created *domain.Session
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.reserver.TryReserve(txCtx, input.ImageIDs); err != nil {
			return err
		}

		now := s.now()
		var err error
		created, err = s.sessions.Create(txCtx, domain.Session{
			ID:          uuid.New(),
			PatientID:   input.PatientID,
			CaregiverID: input.CaregiverID,
			ImageIDs:    input.ImageIDs,
			Active:      false,
			Status:      domain.SessionStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		return s.auditSession(txCtx, actorID(txCtx, input.CaregiverID), created.ID, domain.AuditActionCreate, map[string]any{
			"patient_id": input.PatientID.String(),
			"image_ids":  lo.Map(input.ImageIDs, func(id uuid.UUID, _ int) string { return id.String() }),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "session created",
		slog.String("session_id", created.ID.String()),
		slog.String("patient_id", input.PatientID.String()),
		slog.String("caregiver_id", input.CaregiverID.String()),
	)
	return created, nil
}

// Delete removes a session with its descriptions and scores. Its images
// stay assigned_to_session; only an administrative release frees them.
func (s *Service) Delete(ctx context.Context, sessionID uuid.UUID) error {
	var deleted *domain.Session
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.sessions.GetForUpdate(txCtx, sessionID)
		if err != nil {
			return err
		}
		if err := s.sessions.Delete(txCtx, sessionID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		deleted = sess

		return s.auditSession(txCtx, actorID(txCtx, sess.CaregiverID), sessionID, domain.AuditActionDelete, map[string]any{
			"status": string(sess.Status),
		})
	})
	if err != nil {
		return err
	}

	if deleted.IsCompleted() {
		s.invalidateBaseline(ctx, deleted.PatientID)
	}

	s.log.InfoContext(ctx, "session deleted", slog.String("session_id", sessionID.String()))
	return nil
}
