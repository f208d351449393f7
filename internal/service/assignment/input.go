package assignment

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// AssignInput links a caregiver to a patient.
type AssignInput struct {
	CaregiverID uuid.UUID
	PatientID   uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i AssignInput) Validate() error {
	var errs []domain.FieldError

	if i.CaregiverID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "caregiver_id", Message: "required"})
	}
	if i.PatientID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "patient_id", Message: "required"})
	}
	if i.CaregiverID != uuid.Nil && i.CaregiverID == i.PatientID {
		errs = append(errs, domain.FieldError{Field: "patient_id", Message: "must differ from caregiver_id"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RemoveInput unlinks a caregiver from a patient.
type RemoveInput struct {
	CaregiverID uuid.UUID
	PatientID   uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i RemoveInput) Validate() error {
	var errs []domain.FieldError

	if i.CaregiverID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "caregiver_id", Message: "required"})
	}
	if i.PatientID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "patient_id", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
