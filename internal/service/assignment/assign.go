package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Assign links a caregiver to a patient.
//
// Both profile rows are locked for the duration of the transaction, so the
// availability and capacity checks cannot interleave with another Assign
// touching either party. The schema re-checks both limits on insert.
func (s *Service) Assign(ctx context.Context, input AssignInput) (*domain.CareAssignment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *domain.CareAssignment
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		roles, err := s.assignments.LockProfiles(txCtx, input.CaregiverID, input.PatientID)
		if err != nil {
			return fmt.Errorf("lock profiles: %w", err)
		}
		if err := checkRole(roles, input.CaregiverID, domain.RoleCaregiver, "caregiver_id"); err != nil {
			return err
		}
		if err := checkRole(roles, input.PatientID, domain.RolePatient, "patient_id"); err != nil {
			return err
		}

		_, err = s.assignments.GetByCaregiver(txCtx, input.CaregiverID)
		switch {
		case err == nil:
			return domain.ErrCaregiverUnavailable
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("get caregiver assignment: %w", err)
		}

		count, err := s.assignments.CountForPatient(txCtx, input.PatientID)
		if err != nil {
			return fmt.Errorf("count caregivers: %w", err)
		}
		if count >= domain.MaxCaregiversPerPatient {
			return domain.ErrPatientAtCapacity
		}

		created, err = s.assignments.Create(txCtx, domain.CareAssignment{
			CaregiverID: input.CaregiverID,
			PatientID:   input.PatientID,
			CreatedAt:   s.now(),
		})
		if err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}

		return s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actorID(txCtx, input.CaregiverID),
			EntityType: domain.EntityTypeAssignment,
			EntityID:   &input.CaregiverID,
			Action:     domain.AuditActionCreate,
			Changes: map[string]any{
				"patient_id": input.PatientID.String(),
			},
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "caregiver assigned",
		slog.String("caregiver_id", input.CaregiverID.String()),
		slog.String("patient_id", input.PatientID.String()),
	)
	return created, nil
}

// Remove deletes the assignment if present. Removing a missing assignment
// succeeds without effect.
func (s *Service) Remove(ctx context.Context, input RemoveInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		removed, err := s.assignments.Delete(txCtx, input.CaregiverID, input.PatientID)
		if err != nil {
			return fmt.Errorf("delete assignment: %w", err)
		}
		if !removed {
			return nil
		}

		if err := s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    actorID(txCtx, input.CaregiverID),
			EntityType: domain.EntityTypeAssignment,
			EntityID:   &input.CaregiverID,
			Action:     domain.AuditActionDelete,
			Changes: map[string]any{
				"patient_id": input.PatientID.String(),
			},
			CreatedAt: s.now(),
		}); err != nil {
			return fmt.Errorf("audit log: %w", err)
		}

		s.log.InfoContext(ctx, "caregiver unassigned",
			slog.String("caregiver_id", input.CaregiverID.String()),
			slog.String("patient_id", input.PatientID.String()),
		)
		return nil
	})
}

func checkRole(roles map[uuid.UUID]domain.Role, id uuid.UUID, want domain.Role, field string) error {
	role, ok := roles[id]
	if !ok {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if role != want {
		return domain.NewValidationError(field, "must reference a "+string(want))
	}
	return nil
}
