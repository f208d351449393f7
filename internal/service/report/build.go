package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// BuildReport summarizes all of a patient's completed sessions. A patient
// without completed sessions gets an empty report, not an error.
func (s *Service) BuildReport(ctx context.Context, patientID uuid.UUID) (*domain.PatientReport, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	var (
		profile  *domain.Profile
		sessions []domain.Session
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		profile, err = s.profiles.GetByID(gctx, patientID)
		if err != nil {
			return fmt.Errorf("get patient: %w", err)
		}
		if profile.Role != domain.RolePatient {
			return fmt.Errorf("profile %s is not a patient: %w", patientID, domain.ErrNotFound)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		sessions, err = s.sessions.ListCompleted(gctx, patientID)
		if err != nil {
			return fmt.Errorf("list completed sessions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.PatientReport{
		PatientID:   patientID,
		PatientName: profile.Name,
		Summary:     Summarize(sessions),
		Sessions:    sessions,
	}
	if len(sessions) > 0 {
		from, to := sessions[0].CreatedAt, sessions[len(sessions)-1].CreatedAt
		report.Period = domain.Period{From: &from, To: &to}
	}
	if report.Sessions == nil {
		report.Sessions = []domain.Session{}
	}

	s.log.DebugContext(ctx, "report built",
		slog.String("patient_id", patientID.String()),
		slog.Int("sessions", len(sessions)),
	)
	return report, nil
}

// BuildBaseline returns the patient's earliest completed session in full
// detail, or nil when the patient has none yet.
func (s *Service) BuildBaseline(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, error) {
	if s.cache != nil {
		detail, ok, err := s.cache.Get(ctx, patientID)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "baseline cache read failed",
				slog.String("patient_id", patientID.String()),
				slog.String("error", err.Error()),
			)
		case ok:
			return detail, nil
		}
	}

	earliest, err := s.sessions.EarliestCompleted(ctx, patientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("earliest completed session: %w", err)
	}

	detail, err := s.details.GetDetail(ctx, earliest.ID)
	if err != nil {
		return nil, fmt.Errorf("baseline detail: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, patientID, detail); err != nil {
			s.log.WarnContext(ctx, "baseline cache write failed",
				slog.String("patient_id", patientID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return detail, nil
}
