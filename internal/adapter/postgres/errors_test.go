package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "session", uuid.New()); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got := MapError(fmt.Errorf("scan row: %w", pgx.ErrNoRows), "session", id)

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := fmt.Sprintf("session %s: not found", id); got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
}

func TestMapError_ContextErrorsPassThrough(t *testing.T) {
	t.Parallel()

	for _, cerr := range []error{context.DeadlineExceeded, context.Canceled} {
		got := MapError(cerr, "image", uuid.New())
		if !errors.Is(got, cerr) {
			t.Errorf("MapError(%v) does not wrap the context error: %v", cerr, got)
		}
		if errors.Is(got, domain.ErrNotFound) {
			t.Errorf("MapError(%v) should not map to a domain error", cerr)
		}
	}
}

func TestMapError_PgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"unique_violation", "23505", domain.ErrAlreadyExists},
		{"foreign_key_violation", "23503", domain.ErrNotFound},
		{"check_violation", "23514", domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MapError(&pgconn.PgError{Code: tt.code}, "score", uuid.New())
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("MapError(code %s) = %v, want %v", tt.code, got, tt.wantErr)
			}
		})
	}
}

func TestMapError_NamedConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		constraint string
		code       string
		wantErr    error
	}{
		{ConstraintCaregiverSingleAssignment, "23505", domain.ErrCaregiverUnavailable},
		{ConstraintPatientCapacity, "23514", domain.ErrPatientAtCapacity},
		{ConstraintImageSingleSession, "23505", domain.ErrImageAlreadyAssigned},
		{ConstraintDescriptionPerImage, "23505", domain.ErrDescriptionAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			t.Parallel()
			pgErr := &pgconn.PgError{Code: tt.code, ConstraintName: tt.constraint}
			got := MapError(fmt.Errorf("insert: %w", pgErr), "row", uuid.New())
			if !errors.Is(got, tt.wantErr) {
				t.Errorf("MapError(%s) = %v, want %v", tt.constraint, got, tt.wantErr)
			}
			if !errors.Is(got, domain.ErrConflict) {
				t.Errorf("MapError(%s) should be a conflict", tt.constraint)
			}
		})
	}
}

func TestMapError_UnknownPgError(t *testing.T) {
	t.Parallel()

	got := MapError(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, "session", uuid.New())

	var unwrapped *pgconn.PgError
	if !errors.As(got, &unwrapped) {
		t.Errorf("MapError(unknown PgError) does not wrap *pgconn.PgError: %v", got)
	}
	if errors.Is(got, domain.ErrNotFound) || errors.Is(got, domain.ErrAlreadyExists) || errors.Is(got, domain.ErrValidation) {
		t.Error("MapError(unknown PgError) should not map to a domain error")
	}
}

func TestMapError_UnknownError(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	original := errors.New("something unexpected")
	got := MapError(original, "session", id)

	if !errors.Is(got, original) {
		t.Errorf("MapError(unknown) does not wrap original error: %v", got)
	}
	if want := fmt.Sprintf("session %s: something unexpected", id); got.Error() != want {
		t.Errorf("MapError(unknown).Error() = %q, want %q", got.Error(), want)
	}
}
