package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// ListCaregiversOf returns the caregivers linked to a patient.
func (s *Service) ListCaregiversOf(ctx context.Context, patientID uuid.UUID) ([]domain.Profile, error) {
	caregivers, err := s.assignments.ListCaregivers(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list caregivers: %w", err)
	}
	return caregivers, nil
}

// CountCaregiversOf returns how many caregivers are linked to a patient.
// Advisory: Assign re-checks under lock.
func (s *Service) CountCaregiversOf(ctx context.Context, patientID uuid.UUID) (int, error) {
	n, err := s.assignments.CountForPatient(ctx, patientID)
	if err != nil {
		return 0, fmt.Errorf("count caregivers: %w", err)
	}
	return n, nil
}

// IsCaregiverAvailable reports whether a caregiver has no patient yet.
// Advisory: Assign re-checks under lock.
func (s *Service) IsCaregiverAvailable(ctx context.Context, caregiverID uuid.UUID) (bool, error) {
	_, err := s.assignments.GetByCaregiver(ctx, caregiverID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("get caregiver assignment: %w", err)
	}
}

// PatientOf returns the patient a caregiver looks after.
// Returns domain.ErrNotFound if the caregiver is unassigned.
func (s *Service) PatientOf(ctx context.Context, caregiverID uuid.UUID) (uuid.UUID, error) {
	a, err := s.assignments.GetByCaregiver(ctx, caregiverID)
	if err != nil {
		return uuid.Nil, err
	}
	return a.PatientID, nil
}

// IsLinked reports whether caregiverID currently looks after patientID.
func (s *Service) IsLinked(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	got, err := s.PatientOf(ctx, caregiverID)
	switch {
	case err == nil:
		return got == patientID, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
