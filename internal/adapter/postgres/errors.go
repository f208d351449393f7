package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Constraint names declared in migrations that carry a specific domain meaning.
const (
	ConstraintCaregiverSingleAssignment = "care_assignments_pkey"
	ConstraintPatientCapacity           = "care_assignments_patient_capacity"
	ConstraintImageSingleSession        = "session_images_image_id_key"
	ConstraintDescriptionPerImage       = "patient_descriptions_session_image_key"
)

var constraintErrors = map[string]error{
	ConstraintCaregiverSingleAssignment: domain.ErrCaregiverUnavailable,
	ConstraintPatientCapacity:           domain.ErrPatientAtCapacity,
	ConstraintImageSingleSession:        domain.ErrImageAlreadyAssigned,
	ConstraintDescriptionPerImage:       domain.ErrDescriptionAlreadyExists,
}

// MapError converts pgx/pgconn errors to domain errors.
// Known constraint names map to their named conflict; otherwise
// 23505 → ErrAlreadyExists, 23503 → ErrNotFound, 23514 → ErrValidation.
// context.DeadlineExceeded and context.Canceled are NOT mapped — they pass through.
func MapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%s %s: %w", entity, id, mapped)
		}
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
