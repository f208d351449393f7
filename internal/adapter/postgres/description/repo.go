// Package description stores patient descriptions and their scores.
//
// A description carries a scoring claim (scoring_claimed_at) while a scorer
// call for it is in flight. ClaimScoring takes the claim only when no score
// exists and no fresh claim is held, so at most one scorer call runs per
// (session, image) pair.
package description

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Repo provides description and score persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new description repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const descriptionColumns = `id, session_id, image_id, patient_id, text, submitted_at, scoring_claimed_at`

const createSQL = `
INSERT INTO patient_descriptions (id, session_id, image_id, patient_id, text, submitted_at, scoring_claimed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + descriptionColumns

const getBySessionImageSQL = `
SELECT ` + descriptionColumns + `
FROM patient_descriptions
WHERE session_id = $1 AND image_id = $2`

const listBySessionSQL = `
SELECT ` + descriptionColumns + `
FROM patient_descriptions
WHERE session_id = $1
ORDER BY submitted_at, id`

// A claim older than the cutoff belongs to a caller that died mid-call.
const claimSQL = `
UPDATE patient_descriptions d
SET scoring_claimed_at = $2
WHERE d.id = $1
  AND (d.scoring_claimed_at IS NULL OR d.scoring_claimed_at < $3)
  AND NOT EXISTS (SELECT 1 FROM scores s WHERE s.description_id = d.id)`

const releaseSQL = `
UPDATE patient_descriptions
SET scoring_claimed_at = NULL
WHERE id = $1`

const scoreColumns = `id, description_id,
       omission_rate, commission_rate, exactness_rate, coherence_rate, fluency_rate, total_rate,
       hits, omitted_details, omitted_keywords, added_elements, conclusion, created_at`

const createScoreSQL = `
INSERT INTO scores (id, description_id,
                    omission_rate, commission_rate, exactness_rate, coherence_rate, fluency_rate, total_rate,
                    hits, omitted_details, omitted_keywords, added_elements, conclusion, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + scoreColumns

const listScoresBySessionSQL = `
SELECT s.id, s.description_id,
       s.omission_rate, s.commission_rate, s.exactness_rate, s.coherence_rate, s.fluency_rate, s.total_rate,
       s.hits, s.omitted_details, s.omitted_keywords, s.added_elements, s.conclusion, s.created_at
FROM scores s
JOIN patient_descriptions d ON d.id = s.description_id
WHERE d.session_id = $1`

type descriptionRow struct {
	ID               uuid.UUID  `db:"id"`
	SessionID        uuid.UUID  `db:"session_id"`
	ImageID          uuid.UUID  `db:"image_id"`
	PatientID        uuid.UUID  `db:"patient_id"`
	Text             string     `db:"text"`
	SubmittedAt      time.Time  `db:"submitted_at"`
	ScoringClaimedAt *time.Time `db:"scoring_claimed_at"`
}

func (r descriptionRow) toDomain() domain.Description {
	return domain.Description{
		ID:               r.ID,
		SessionID:        r.SessionID,
		ImageID:          r.ImageID,
		PatientID:        r.PatientID,
		Text:             r.Text,
		SubmittedAt:      r.SubmittedAt,
		ScoringClaimedAt: r.ScoringClaimedAt,
	}
}

type scoreRow struct {
	ID              uuid.UUID `db:"id"`
	DescriptionID   uuid.UUID `db:"description_id"`
	OmissionRate    float64   `db:"omission_rate"`
	CommissionRate  float64   `db:"commission_rate"`
	ExactnessRate   float64   `db:"exactness_rate"`
	CoherenceRate   float64   `db:"coherence_rate"`
	FluencyRate     float64   `db:"fluency_rate"`
	TotalRate       float64   `db:"total_rate"`
	Hits            []string  `db:"hits"`
	OmittedDetails  []string  `db:"omitted_details"`
	OmittedKeywords []string  `db:"omitted_keywords"`
	AddedElements   []string  `db:"added_elements"`
	Conclusion      string    `db:"conclusion"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r scoreRow) toDomain() domain.Score {
	return domain.Score{
		ID:            r.ID,
		DescriptionID: r.DescriptionID,
		Rates: domain.Rates{
			Omission:   r.OmissionRate,
			Commission: r.CommissionRate,
			Exactness:  r.ExactnessRate,
			Coherence:  r.CoherenceRate,
			Fluency:    r.FluencyRate,
			Total:      r.TotalRate,
		},
		Hits:            r.Hits,
		OmittedDetails:  r.OmittedDetails,
		OmittedKeywords: r.OmittedKeywords,
		AddedElements:   r.AddedElements,
		Conclusion:      r.Conclusion,
		CreatedAt:       r.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// Descriptions
// ---------------------------------------------------------------------------

// Create inserts a description. A non-nil ScoringClaimedAt stores the
// description already claimed by the caller.
// Returns domain.ErrDescriptionAlreadyExists if the image was already described.
func (r *Repo) Create(ctx context.Context, d domain.Description) (*domain.Description, error) {
	submittedAt := d.SubmittedAt.UTC().Truncate(time.Microsecond)

	var row descriptionRow
	err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, createSQL,
		d.ID, d.SessionID, d.ImageID, d.PatientID, d.Text, submittedAt, d.ScoringClaimedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "description", d.ID)
	}
	out := row.toDomain()
	return &out, nil
}

// GetBySessionImage returns the description of one session image.
// Returns domain.ErrNotFound if the image was not described yet.
func (r *Repo) GetBySessionImage(ctx context.Context, sessionID, imageID uuid.UUID) (*domain.Description, error) {
	var row descriptionRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, getBySessionImageSQL, sessionID, imageID); err != nil {
		return nil, postgres.MapError(err, "description for image", imageID)
	}
	out := row.toDomain()
	return &out, nil
}

// ListBySession returns the descriptions of a session in submission order.
func (r *Repo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Description, error) {
	var rows []descriptionRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, listBySessionSQL, sessionID); err != nil {
		return nil, fmt.Errorf("list descriptions for session %s: %w", sessionID, err)
	}
	out := make([]domain.Description, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// ClaimScoring marks a description as being scored. It succeeds only when
// the description has no score and no claim newer than staleBefore.
func (r *Repo) ClaimScoring(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (bool, error) {
	ct, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, claimSQL, id, now.UTC(), staleBefore.UTC())
	if err != nil {
		return false, postgres.MapError(err, "description", id)
	}
	return ct.RowsAffected() == 1, nil
}

// ReleaseScoring drops the scoring claim so the description can be retried.
func (r *Repo) ReleaseScoring(ctx context.Context, id uuid.UUID) error {
	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, releaseSQL, id); err != nil {
		return postgres.MapError(err, "description", id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scores
// ---------------------------------------------------------------------------

// CreateScore stores the score of a description and drops its claim.
// Returns domain.ErrAlreadyExists if the description was already scored.
func (r *Repo) CreateScore(ctx context.Context, s domain.Score) (*domain.Score, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)
	createdAt := s.CreatedAt.UTC().Truncate(time.Microsecond)

	var row scoreRow
	err := pgxscan.Get(ctx, q, &row, createScoreSQL,
		s.ID, s.DescriptionID,
		s.Rates.Omission, s.Rates.Commission, s.Rates.Exactness, s.Rates.Coherence, s.Rates.Fluency, s.Rates.Total,
		nonNil(s.Hits), nonNil(s.OmittedDetails), nonNil(s.OmittedKeywords), nonNil(s.AddedElements),
		s.Conclusion, createdAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "score for description", s.DescriptionID)
	}

	if _, err := q.Exec(ctx, releaseSQL, s.DescriptionID); err != nil {
		return nil, postgres.MapError(err, "description", s.DescriptionID)
	}

	out := row.toDomain()
	return &out, nil
}

// ListScoresBySession returns the scores of a session keyed by description id.
func (r *Repo) ListScoresBySession(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]domain.Score, error) {
	var rows []scoreRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, listScoresBySessionSQL, sessionID); err != nil {
		return nil, fmt.Errorf("list scores for session %s: %w", sessionID, err)
	}
	out := make(map[uuid.UUID]domain.Score, len(rows))
	for _, row := range rows {
		out[row.DescriptionID] = row.toDomain()
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
