package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const releaseTimeout = 5 * time.Second

// scoreAndComplete calls the scorer for a claimed description, stores the
// score and completes the session once every image carries a scored
// description.
func (s *Service) scoreAndComplete(ctx context.Context, desc *domain.Description, gt domain.GroundTruth) (*DescriptionResult, error) {
	scoreCtx, cancel := context.WithTimeout(ctx, s.scoreTimeout)
	graded, err := s.scorer.Score(scoreCtx, desc.Text, gt)
	cancel()
	if err != nil {
		s.releaseClaim(ctx, desc.ID)
		s.log.WarnContext(ctx, "scoring failed",
			slog.String("description_id", desc.ID.String()),
			slog.String("error", err.Error()),
		)
		if !errors.Is(err, domain.ErrUpstream) {
			err = domain.NewUpstreamError("scorer", err)
		}
		return nil, err
	}

	var (
		stored *domain.Score
		sess   *domain.Session
		rates  domain.Rates
		ready  bool
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sess, err = s.sessions.GetForUpdate(txCtx, desc.SessionID)
		if err != nil {
			return err
		}

		graded.ID = uuid.New()
		graded.DescriptionID = desc.ID
		graded.CreatedAt = s.now()
		stored, err = s.descriptions.CreateScore(txCtx, graded)
		if err != nil {
			return fmt.Errorf("store score: %w", err)
		}

		if sess.IsCompleted() {
			return nil
		}
		rates, ready, err = s.sessionRates(txCtx, sess.ID)
		return err
	})
	if err != nil {
		// The claim still blocks retries until it goes stale; free it now.
		s.releaseClaim(ctx, desc.ID)
		return nil, err
	}

	if ready {
		sess, err = s.completeSession(ctx, desc.PatientID, sess.ID, rates)
		if err != nil {
			return nil, err
		}
	}

	desc.ScoringClaimedAt = nil
	return &DescriptionResult{Description: desc, Score: stored, Session: sess}, nil
}

// completeSession moves a fully scored session to completado. Conclusions
// are written before the session row is locked; scores are immutable, so
// rates computed earlier stay valid. A session completed concurrently is
// returned as is.
func (s *Service) completeSession(ctx context.Context, actorID, sessionID uuid.UUID, rates domain.Rates) (*domain.Session, error) {
	conclusions := s.conclude(ctx, rates)

	var (
		sess           *domain.Session
		completed      bool
		firstCompleted bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sess, err = s.sessions.GetForUpdate(txCtx, sessionID)
		if err != nil {
			return err
		}
		if sess.IsCompleted() {
			return nil
		}

		next, err := domain.Transition(sess.Status, domain.SessionStatusCompleted)
		if err != nil {
			return err
		}

		sess, err = s.sessions.Complete(txCtx, sess.ID, rates, conclusions, s.now())
		if err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		completed = true

		n, err := s.sessions.CountCompleted(txCtx, sess.PatientID)
		if err != nil {
			return fmt.Errorf("count completed: %w", err)
		}
		firstCompleted = n == 1

		return s.auditSession(txCtx, actorID, sess.ID, domain.AuditActionUpdate, map[string]any{
			"status": map[string]any{"new": string(next)},
			"total":  rates.Total,
		})
	})
	if err != nil {
		return nil, err
	}
	if !completed {
		return sess, nil
	}

	s.invalidateBaseline(ctx, sess.PatientID)
	if firstCompleted {
		s.notifier.Notify(ctx, domain.Notification{
			Kind:        domain.NotificationBaselineEstablished,
			RecipientID: sess.CaregiverID,
			SessionID:   sess.ID,
			PatientID:   sess.PatientID,
			OccurredAt:  s.now(),
		})
	}
	s.log.InfoContext(ctx, "session completed",
		slog.String("session_id", sess.ID.String()),
		slog.Float64("total", sess.Rates.Total),
		slog.Bool("baseline", firstCompleted),
	)
	return sess, nil
}

// sessionRates returns the mean rates of the session's scores and whether
// every image has a scored description.
func (s *Service) sessionRates(ctx context.Context, sessionID uuid.UUID) (domain.Rates, bool, error) {
	descs, err := s.descriptions.ListBySession(ctx, sessionID)
	if err != nil {
		return domain.Rates{}, false, fmt.Errorf("list descriptions: %w", err)
	}
	if len(descs) < domain.ImagesPerSession {
		return domain.Rates{}, false, nil
	}

	scores, err := s.descriptions.ListScoresBySession(ctx, sessionID)
	if err != nil {
		return domain.Rates{}, false, fmt.Errorf("list scores: %w", err)
	}

	scored := lo.Filter(descs, func(d domain.Description, _ int) bool {
		_, ok := scores[d.ID]
		return ok
	})
	if len(scored) < domain.ImagesPerSession {
		return domain.Rates{}, false, nil
	}

	rates := lo.Map(scored, func(d domain.Description, _ int) domain.Rates {
		return scores[d.ID].Rates
	})
	return domain.MeanRates(rates), true, nil
}

// conclude asks the scorer for conclusion text and falls back to the
// local template when that call fails.
func (s *Service) conclude(ctx context.Context, rates domain.Rates) domain.Conclusions {
	concludeCtx, cancel := context.WithTimeout(ctx, s.concludeTimeout)
	defer cancel()

	c, err := s.scorer.Conclude(concludeCtx, rates)
	if err != nil {
		s.log.WarnContext(ctx, "conclusion writer failed, using template",
			slog.String("error", err.Error()),
		)
		return templateConclusions(rates)
	}
	return c
}

func (s *Service) releaseClaim(ctx context.Context, descriptionID uuid.UUID) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.descriptions.ReleaseScoring(relCtx, descriptionID); err != nil {
		s.log.WarnContext(ctx, "release scoring claim failed",
			slog.String("description_id", descriptionID.String()),
			slog.String("error", err.Error()),
		)
	}
}
