package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// SetActivation opens or closes a session for patient input. Setting the
// current value again is a no-op and sends no notification.
func (s *Service) SetActivation(ctx context.Context, sessionID uuid.UUID, active bool) (*domain.Session, error) {
	var (
		result  *domain.Session
		changed bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sess, err := s.sessions.GetForUpdate(txCtx, sessionID)
		if err != nil {
			return err
		}
		if sess.IsCompleted() {
			return domain.ErrSessionFinalized
		}
		if sess.Active == active {
			result = sess
			return nil
		}

		result, err = s.sessions.SetActive(txCtx, sessionID, active, s.now())
		if err != nil {
			return fmt.Errorf("set active: %w", err)
		}
		changed = true

		return s.auditSession(txCtx, actorID(txCtx, sess.CaregiverID), sessionID, domain.AuditActionUpdate, map[string]any{
			"active": map[string]any{"old": sess.Active, "new": active},
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		kind := domain.NotificationSessionDeactivated
		if active {
			kind = domain.NotificationSessionActivated
		}
		s.notifier.Notify(ctx, domain.Notification{
			Kind:        kind,
			RecipientID: result.PatientID,
			SessionID:   result.ID,
			PatientID:   result.PatientID,
			OccurredAt:  s.now(),
		})

		s.log.InfoContext(ctx, "session activation changed",
			slog.String("session_id", sessionID.String()),
			slog.Bool("active", active),
		)
	}
	return result, nil
}
