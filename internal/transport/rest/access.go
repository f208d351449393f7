package rest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/transport/middleware"
)

type careLinks interface {
	IsLinked(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)
}

// canViewPatient allows doctors and administrators, the patient themself,
// and caregivers assigned to the patient.
func canViewPatient(ctx context.Context, links careLinks, patientID uuid.UUID) error {
	if err := middleware.RequireRole(ctx, domain.RoleDoctor, domain.RoleCaregiver, domain.RolePatient); err != nil {
		return err
	}
	id, role := caller(ctx)
	switch role {
	case domain.RoleAdmin, domain.RoleDoctor:
		return nil
	case domain.RolePatient:
		if id == patientID {
			return nil
		}
		return domain.ErrForbidden
	default:
		return requireLinked(ctx, links, id, patientID)
	}
}

// canManagePatient allows administrators and caregivers assigned to the
// patient.
func canManagePatient(ctx context.Context, links careLinks, patientID uuid.UUID) error {
	if err := middleware.RequireRole(ctx, domain.RoleCaregiver); err != nil {
		return err
	}
	id, role := caller(ctx)
	if role.IsAdmin() {
		return nil
	}
	return requireLinked(ctx, links, id, patientID)
}

func requireLinked(ctx context.Context, links careLinks, caregiverID, patientID uuid.UUID) error {
	ok, err := links.IsLinked(ctx, caregiverID, patientID)
	if err != nil {
		return fmt.Errorf("check care link: %w", err)
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}
