// Package profile manages the profiles of doctors, caregivers, patients and
// administrators. Profiles are provisioned by administrators; credentials
// live with the identity provider.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

type profileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Create(ctx context.Context, p domain.Profile) (*domain.Profile, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements profile operations.
type Service struct {
	log      *slog.Logger
	profiles profileRepo
	audit    auditLogger
	tx       txManager
	now      func() time.Time
}

// NewService creates a new profile service instance.
func NewService(logger *slog.Logger, profiles profileRepo, audit auditLogger, tx txManager) *Service {
	return &Service{
		log:      logger.With("service", "profile"),
		profiles: profiles,
		audit:    audit,
		tx:       tx,
		now:      time.Now,
	}
}

// CreateInput holds parameters for provisioning a profile.
type CreateInput struct {
	Name  string
	Email string
	Role  domain.Role
}

// Validate validates the create input.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError

	name := strings.TrimSpace(i.Name)
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	} else if len(name) > 255 {
		errs = append(errs, domain.FieldError{Field: "name", Message: "too long"})
	}

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	} else if _, err := mail.ParseAddress(i.Email); err != nil {
		errs = append(errs, domain.FieldError{Field: "email", Message: "invalid address"})
	}

	if !i.Role.IsValid() {
		errs = append(errs, domain.FieldError{Field: "role", Message: "must be doctor, caregiver, patient or admin"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// Create provisions a profile (admin only).
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Profile, error) {
	if !ctxutil.IsAdminCtx(ctx) {
		return nil, domain.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	adminID, _ := ctxutil.UserIDFromCtx(ctx)

	var created *domain.Profile
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.profiles.Create(txCtx, domain.Profile{
			ID:        uuid.New(),
			Name:      strings.TrimSpace(input.Name),
			Email:     strings.ToLower(strings.TrimSpace(input.Email)),
			Role:      input.Role,
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}

		return s.audit.Log(txCtx, domain.AuditRecord{
			ID:         uuid.New(),
			ActorID:    adminID,
			EntityType: domain.EntityTypeProfile,
			EntityID:   &created.ID,
			Action:     domain.AuditActionCreate,
			Changes:    map[string]any{"role": created.Role.String(), "email": created.Email},
			CreatedAt:  s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "profile created",
		slog.String("profile_id", created.ID.String()),
		slog.String("role", created.Role.String()),
	)
	return created, nil
}

// Get returns a profile by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("profile.Get: %w", err)
	}
	return p, nil
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context) (*domain.Profile, error) {
	id, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.Get(ctx, id)
}
