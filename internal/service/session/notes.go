package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// AddDoctorNote appends a timestamped note. Notes are accepted in every
// session state.
func (s *Service) AddDoctorNote(ctx context.Context, input AddNoteInput) (*domain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Session
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := s.now()
		var err error
		updated, err = s.sessions.AppendNote(txCtx, input.SessionID, domain.DoctorNote{
			AuthorID:  input.AuthorID,
			Text:      strings.TrimSpace(input.Text),
			CreatedAt: now,
		}, now)
		if err != nil {
			return fmt.Errorf("append note: %w", err)
		}

		return s.auditSession(txCtx, input.AuthorID, input.SessionID, domain.AuditActionUpdate, map[string]any{
			"notes": map[string]any{"appended": 1},
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBaseline(ctx, updated.PatientID)
	s.log.InfoContext(ctx, "doctor note added", slog.String("session_id", input.SessionID.String()))
	return updated, nil
}

// ReplaceDoctorNotes rewrites the whole note list. An empty list clears it.
func (s *Service) ReplaceDoctorNotes(ctx context.Context, input ReplaceNotesInput) (*domain.Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	notes := lo.Map(input.Notes, func(n NoteInput, _ int) domain.DoctorNote {
		created := n.CreatedAt
		if created.IsZero() {
			created = now
		}
		return domain.DoctorNote{
			AuthorID:  n.AuthorID,
			Text:      strings.TrimSpace(n.Text),
			CreatedAt: created,
		}
	})

	var updated *domain.Session
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.sessions.ReplaceNotes(txCtx, input.SessionID, notes, now)
		if err != nil {
			return fmt.Errorf("replace notes: %w", err)
		}

		return s.auditSession(txCtx, actorID(txCtx, updated.CaregiverID), input.SessionID, domain.AuditActionUpdate, map[string]any{
			"notes": map[string]any{"replaced": len(notes)},
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBaseline(ctx, updated.PatientID)
	s.log.InfoContext(ctx, "doctor notes replaced",
		slog.String("session_id", input.SessionID.String()),
		slog.Int("count", len(notes)),
	)
	return updated, nil
}
