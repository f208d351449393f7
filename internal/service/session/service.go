// Package session implements the assessment session lifecycle: creation
// with image reservation, activation, description intake and scoring,
// completion, and doctor notes.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/config"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

type sessionRepo interface {
	Create(ctx context.Context, s domain.Session) (*domain.Session, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) (*domain.Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus, now time.Time) error
	Complete(ctx context.Context, id uuid.UUID, rates domain.Rates, c domain.Conclusions, now time.Time) (*domain.Session, error)
	AppendNote(ctx context.Context, id uuid.UUID, note domain.DoctorNote, now time.Time) (*domain.Session, error)
	ReplaceNotes(ctx context.Context, id uuid.UUID, notes []domain.DoctorNote, now time.Time) (*domain.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	CountCompleted(ctx context.Context, patientID uuid.UUID) (int, error)
	List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error)
}

type descriptionRepo interface {
	Create(ctx context.Context, d domain.Description) (*domain.Description, error)
	GetBySessionImage(ctx context.Context, sessionID, imageID uuid.UUID) (*domain.Description, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Description, error)
	ClaimScoring(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (bool, error)
	ReleaseScoring(ctx context.Context, id uuid.UUID) error
	CreateScore(ctx context.Context, s domain.Score) (*domain.Score, error)
	ListScoresBySession(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]domain.Score, error)
}

type imageRepo interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ReferenceImage, error)
	GetGroundTruth(ctx context.Context, imageID uuid.UUID) (*domain.GroundTruth, error)
	GetGroundTruths(ctx context.Context, imageIDs []uuid.UUID) (map[uuid.UUID]domain.GroundTruth, error)
}

type imageReserver interface {
	TryReserve(ctx context.Context, imageIDs []uuid.UUID) error
}

type careLinks interface {
	IsLinked(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)
}

type descriptionScorer interface {
	Score(ctx context.Context, text string, gt domain.GroundTruth) (domain.Score, error)
	Conclude(ctx context.Context, rates domain.Rates) (domain.Conclusions, error)
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// baselineCache is optional.
type baselineCache interface {
	Invalidate(ctx context.Context, patientID uuid.UUID) error
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides session lifecycle operations.
type Service struct {
	sessions     sessionRepo
	descriptions descriptionRepo
	images       imageRepo
	reserver     imageReserver
	links        careLinks
	scorer       descriptionScorer
	notifier     notifier
	baseline     baselineCache
	audit        auditLogger
	tx           txManager
	log          *slog.Logger

	scoreTimeout    time.Duration
	concludeTimeout time.Duration
	claimTTL        time.Duration
	now             func() time.Time
}

// NewService creates a new session service. baseline may be nil.
func NewService(
	log *slog.Logger,
	sessions sessionRepo,
	descriptions descriptionRepo,
	images imageRepo,
	reserver imageReserver,
	links careLinks,
	scorer descriptionScorer,
	notifier notifier,
	baseline baselineCache,
	audit auditLogger,
	tx txManager,
	cfg config.SessionConfig,
	scorerCfg config.ScorerConfig,
) *Service {
	return &Service{
		sessions:        sessions,
		descriptions:    descriptions,
		images:          images,
		reserver:        reserver,
		links:           links,
		scorer:          scorer,
		notifier:        notifier,
		baseline:        baseline,
		audit:           audit,
		tx:              tx,
		log:             log.With("service", "session"),
		scoreTimeout:    scorerCfg.Timeout,
		concludeTimeout: scorerCfg.ConcludeTimeout,
		claimTTL:        cfg.ScoringClaimTTL,
		now:             time.Now,
	}
}

func actorID(ctx context.Context, fallback uuid.UUID) uuid.UUID {
	if id, ok := ctxutil.UserIDFromCtx(ctx); ok {
		return id
	}
	return fallback
}

func (s *Service) auditSession(ctx context.Context, actor, sessionID uuid.UUID, action domain.AuditAction, changes map[string]any) error {
	return s.audit.Log(ctx, domain.AuditRecord{
		ID:         uuid.New(),
		ActorID:    actor,
		EntityType: domain.EntityTypeSession,
		EntityID:   &sessionID,
		Action:     action,
		Changes:    changes,
		CreatedAt:  s.now(),
	})
}

// invalidateBaseline drops the cached baseline of a patient. A cache
// failure only costs a stale read until the entry expires.
func (s *Service) invalidateBaseline(ctx context.Context, patientID uuid.UUID) {
	if s.baseline == nil {
		return
	}
	if err := s.baseline.Invalidate(ctx, patientID); err != nil {
		s.log.WarnContext(ctx, "baseline cache invalidation failed",
			slog.String("patient_id", patientID.String()),
			slog.String("error", err.Error()),
		)
	}
}
