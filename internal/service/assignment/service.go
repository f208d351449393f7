// Package assignment implements the care-assignment registry: which
// caregiver looks after which patient, within the 1-patient-per-caregiver
// and 3-caregivers-per-patient limits.
package assignment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

type assignmentRepo interface {
	LockProfiles(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]domain.Role, error)
	Create(ctx context.Context, a domain.CareAssignment) (*domain.CareAssignment, error)
	Delete(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)
	GetByCaregiver(ctx context.Context, caregiverID uuid.UUID) (*domain.CareAssignment, error)
	CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error)
	ListCaregivers(ctx context.Context, patientID uuid.UUID) ([]domain.Profile, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides care-assignment operations.
type Service struct {
	assignments assignmentRepo
	audit       auditLogger
	tx          txManager
	log         *slog.Logger
	now         func() time.Time
}

// NewService creates a new assignment service.
func NewService(
	log *slog.Logger,
	assignments assignmentRepo,
	audit auditLogger,
	tx txManager,
) *Service {
	return &Service{
		assignments: assignments,
		audit:       audit,
		tx:          tx,
		log:         log.With("service", "assignment"),
		now:         time.Now,
	}
}

// actorID is the authenticated caller, or fallback for internal callers.
func actorID(ctx context.Context, fallback uuid.UUID) uuid.UUID {
	if id, ok := ctxutil.UserIDFromCtx(ctx); ok {
		return id
	}
	return fallback
}
