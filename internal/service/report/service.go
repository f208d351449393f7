// Package report assembles the doctor-facing patient report and baseline
// from completed sessions.
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

type sessionRepo interface {
	ListCompleted(ctx context.Context, patientID uuid.UUID) ([]domain.Session, error)
	EarliestCompleted(ctx context.Context, patientID uuid.UUID) (*domain.Session, error)
}

type profileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

type sessionDetailer interface {
	GetDetail(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error)
}

// baselineCache is optional.
type baselineCache interface {
	Get(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, bool, error)
	Set(ctx context.Context, patientID uuid.UUID, detail *domain.SessionDetail) error
}

// Service builds reports. It never writes domain state.
type Service struct {
	sessions     sessionRepo
	profiles     profileRepo
	details      sessionDetailer
	cache        baselineCache
	log          *slog.Logger
	fetchTimeout time.Duration
}

// NewService creates a new report service. cache may be nil.
func NewService(
	log *slog.Logger,
	sessions sessionRepo,
	profiles profileRepo,
	details sessionDetailer,
	cache baselineCache,
	fetchTimeout time.Duration,
) *Service {
	return &Service{
		sessions:     sessions,
		profiles:     profiles,
		details:      details,
		cache:        cache,
		log:          log.With("service", "report"),
		fetchTimeout: fetchTimeout,
	}
}
