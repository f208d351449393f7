// Package session implements the assessment session repository using
// PostgreSQL. Doctor notes live in a JSONB array on the session row; the
// three image links live in session_images.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Repo provides assessment session persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new session repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

var sessionColumns = []string{
	"id", "patient_id", "caregiver_id", "active", "status",
	"omission_rate", "commission_rate", "exactness_rate", "coherence_rate", "fluency_rate", "total_rate",
	"technical_conclusion", "plain_conclusion", "notes",
	"created_at", "updated_at", "completed_at",
}

const sessionColumnList = `id, patient_id, caregiver_id, active, status,
       omission_rate, commission_rate, exactness_rate, coherence_rate, fluency_rate, total_rate,
       technical_conclusion, plain_conclusion, notes,
       created_at, updated_at, completed_at`

const createSQL = `
INSERT INTO assessment_sessions (id, patient_id, caregiver_id, active, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, false, 'pending', '[]', $4, $4)
RETURNING ` + sessionColumnList

const linkImagesSQL = `
INSERT INTO session_images (session_id, image_id, position)
SELECT $1, t.image_id, t.ord
FROM unnest($2::uuid[]) WITH ORDINALITY AS t(image_id, ord)`

const getByIDSQL = `
SELECT ` + sessionColumnList + `
FROM assessment_sessions
WHERE id = $1`

const getForUpdateSQL = getByIDSQL + `
FOR UPDATE`

const imageIDsSQL = `
SELECT session_id, image_id
FROM session_images
WHERE session_id = ANY($1)
ORDER BY session_id, position`

const setActiveSQL = `
UPDATE assessment_sessions
SET active = $2, updated_at = $3
WHERE id = $1
RETURNING ` + sessionColumnList

const updateStatusSQL = `
UPDATE assessment_sessions
SET status = $2, updated_at = $3
WHERE id = $1 AND status <> 'completado'`

const completeSQL = `
UPDATE assessment_sessions
SET status = 'completado',
    omission_rate = $2, commission_rate = $3, exactness_rate = $4,
    coherence_rate = $5, fluency_rate = $6, total_rate = $7,
    technical_conclusion = $8, plain_conclusion = $9,
    completed_at = $10, updated_at = $10
WHERE id = $1 AND status <> 'completado'
RETURNING ` + sessionColumnList

const appendNoteSQL = `
UPDATE assessment_sessions
SET notes = notes || $2::jsonb, updated_at = $3
WHERE id = $1
RETURNING ` + sessionColumnList

const replaceNotesSQL = `
UPDATE assessment_sessions
SET notes = $2::jsonb, updated_at = $3
WHERE id = $1
RETURNING ` + sessionColumnList

const deleteSQL = `
DELETE FROM assessment_sessions
WHERE id = $1`

const countCompletedSQL = `
SELECT count(*) FROM assessment_sessions
WHERE patient_id = $1 AND status = 'completado'`

const earliestCompletedSQL = `
SELECT ` + sessionColumnList + `
FROM assessment_sessions
WHERE patient_id = $1 AND status = 'completado'
ORDER BY completed_at, id
LIMIT 1`

const completedByPatientSQL = `
SELECT ` + sessionColumnList + `
FROM assessment_sessions
WHERE patient_id = $1 AND status = 'completado'
ORDER BY created_at, id`

// sessionRow is the scany scan target for assessment_sessions.
type sessionRow struct {
	ID                  uuid.UUID  `db:"id"`
	PatientID           uuid.UUID  `db:"patient_id"`
	CaregiverID         uuid.UUID  `db:"caregiver_id"`
	Active              bool       `db:"active"`
	Status              string     `db:"status"`
	OmissionRate        *float64   `db:"omission_rate"`
	CommissionRate      *float64   `db:"commission_rate"`
	ExactnessRate       *float64   `db:"exactness_rate"`
	CoherenceRate       *float64   `db:"coherence_rate"`
	FluencyRate         *float64   `db:"fluency_rate"`
	TotalRate           *float64   `db:"total_rate"`
	TechnicalConclusion *string    `db:"technical_conclusion"`
	PlainConclusion     *string    `db:"plain_conclusion"`
	Notes               []byte     `db:"notes"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	CompletedAt         *time.Time `db:"completed_at"`
}

func (r sessionRow) toDomain() (domain.Session, error) {
	s := domain.Session{
		ID:          r.ID,
		PatientID:   r.PatientID,
		CaregiverID: r.CaregiverID,
		Active:      r.Active,
		Status:      domain.SessionStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
		Notes:       []domain.DoctorNote{},
	}

	if r.TotalRate != nil {
		s.Rates = &domain.Rates{
			Omission:   deref(r.OmissionRate),
			Commission: deref(r.CommissionRate),
			Exactness:  deref(r.ExactnessRate),
			Coherence:  deref(r.CoherenceRate),
			Fluency:    deref(r.FluencyRate),
			Total:      *r.TotalRate,
		}
	}
	if r.TechnicalConclusion != nil || r.PlainConclusion != nil {
		s.Conclusions = &domain.Conclusions{}
		if r.TechnicalConclusion != nil {
			s.Conclusions.Technical = *r.TechnicalConclusion
		}
		if r.PlainConclusion != nil {
			s.Conclusions.Plain = *r.PlainConclusion
		}
	}

	if len(r.Notes) > 0 {
		if err := json.Unmarshal(r.Notes, &s.Notes); err != nil {
			return domain.Session{}, fmt.Errorf("session %s unmarshal notes: %w", r.ID, err)
		}
	}
	return s, nil
}

type imageLinkRow struct {
	SessionID uuid.UUID `db:"session_id"`
	ImageID   uuid.UUID `db:"image_id"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a pending, inactive session and links its images in order.
// Returns domain.ErrImageAlreadyAssigned if an image is linked elsewhere.
func (r *Repo) Create(ctx context.Context, s domain.Session) (*domain.Session, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)
	createdAt := s.CreatedAt.UTC().Truncate(time.Microsecond)

	var row sessionRow
	if err := pgxscan.Get(ctx, q, &row, createSQL, s.ID, s.PatientID, s.CaregiverID, createdAt); err != nil {
		return nil, postgres.MapError(err, "session", s.ID)
	}

	if _, err := q.Exec(ctx, linkImagesSQL, s.ID, s.ImageIDs); err != nil {
		return nil, postgres.MapError(err, "session", s.ID)
	}

	created, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	created.ImageIDs = append([]uuid.UUID(nil), s.ImageIDs...)
	return &created, nil
}

// SetActive sets the activation flag and returns the updated session.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) (*domain.Session, error) {
	return r.updateReturning(ctx, id, setActiveSQL, active, now.UTC())
}

// UpdateStatus moves a non-terminal session to status.
// Returns domain.ErrSessionFinalized if the session is already completado.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus, now time.Time) error {
	ct, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, updateStatusSQL, id, string(status), now.UTC())
	if err != nil {
		return postgres.MapError(err, "session", id)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionFinalized)
	}
	return nil
}

// Complete stores the aggregate rates and conclusions and moves the session
// to completado. Returns domain.ErrSessionFinalized if it already was.
func (r *Repo) Complete(ctx context.Context, id uuid.UUID, rates domain.Rates, c domain.Conclusions, now time.Time) (*domain.Session, error) {
	s, err := r.updateReturning(ctx, id, completeSQL,
		rates.Omission, rates.Commission, rates.Exactness, rates.Coherence, rates.Fluency, rates.Total,
		c.Technical, c.Plain, now.UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionFinalized)
		}
		return nil, err
	}
	return s, nil
}

// AppendNote appends a note to the end of the session's note list.
func (r *Repo) AppendNote(ctx context.Context, id uuid.UUID, note domain.DoctorNote, now time.Time) (*domain.Session, error) {
	payload, err := json.Marshal([]domain.DoctorNote{note})
	if err != nil {
		return nil, fmt.Errorf("session %s marshal note: %w", id, err)
	}
	return r.updateReturning(ctx, id, appendNoteSQL, payload, now.UTC())
}

// ReplaceNotes overwrites the whole note list.
func (r *Repo) ReplaceNotes(ctx context.Context, id uuid.UUID, notes []domain.DoctorNote, now time.Time) (*domain.Session, error) {
	if notes == nil {
		notes = []domain.DoctorNote{}
	}
	payload, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("session %s marshal notes: %w", id, err)
	}
	return r.updateReturning(ctx, id, replaceNotesSQL, payload, now.UTC())
}

// Delete removes a session together with its image links, descriptions and
// scores. Image rows keep their state.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "session", id)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a session with its image ids.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return r.getOne(ctx, id, getByIDSQL)
}

// GetForUpdate returns a session and locks its row for the rest of the
// surrounding transaction. Must run inside RunInTx.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return r.getOne(ctx, id, getForUpdateSQL)
}

// EarliestCompleted returns the first session of a patient that reached
// completado. Returns domain.ErrNotFound if there is none.
func (r *Repo) EarliestCompleted(ctx context.Context, patientID uuid.UUID) (*domain.Session, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var row sessionRow
	if err := pgxscan.Get(ctx, q, &row, earliestCompletedSQL, patientID); err != nil {
		return nil, postgres.MapError(err, "session for patient", patientID)
	}
	sessions, err := r.withImages(ctx, []sessionRow{row})
	if err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// CountCompleted returns how many sessions of a patient are completado.
func (r *Repo) CountCompleted(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, countCompletedSQL, patientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed sessions for patient %s: %w", patientID, err)
	}
	return n, nil
}

// ListCompleted returns every completado session of a patient, oldest
// first. Unlike List it applies no page limit.
func (r *Repo) ListCompleted(ctx context.Context, patientID uuid.UUID) ([]domain.Session, error) {
	var rows []sessionRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, completedByPatientSQL, patientID); err != nil {
		return nil, fmt.Errorf("list completed sessions for patient %s: %w", patientID, err)
	}
	return r.withImages(ctx, rows)
}

// List returns sessions matching the filter, newest first unless
// OldestFirst is set.
func (r *Repo) List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	query, args, err := buildListQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build session list query: %w", err)
	}

	var rows []sessionRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return r.withImages(ctx, rows)
}

func buildListQuery(f domain.SessionFilter) (string, []any, error) {
	b := psql.Select(sessionColumns...).From("assessment_sessions")

	if f.PatientID != nil {
		b = b.Where(sq.Eq{"patient_id": *f.PatientID})
	}
	if f.CaregiverID != nil {
		b = b.Where(sq.Eq{"caregiver_id": *f.CaregiverID})
	}
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": string(*f.Status)})
	}
	if f.ActiveOnly {
		b = b.Where(sq.Eq{"active": true})
	}

	if f.OldestFirst {
		b = b.OrderBy("created_at ASC", "id ASC")
	} else {
		b = b.OrderBy("created_at DESC", "id DESC")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	b = b.Limit(uint64(limit))

	return b.ToSql()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) getOne(ctx context.Context, id uuid.UUID, query string) (*domain.Session, error) {
	var row sessionRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, query, id); err != nil {
		return nil, postgres.MapError(err, "session", id)
	}
	sessions, err := r.withImages(ctx, []sessionRow{row})
	if err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

func (r *Repo) updateReturning(ctx context.Context, id uuid.UUID, query string, args ...any) (*domain.Session, error) {
	var row sessionRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, query, append([]any{id}, args...)...); err != nil {
		return nil, postgres.MapError(err, "session", id)
	}
	sessions, err := r.withImages(ctx, []sessionRow{row})
	if err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// withImages converts rows and attaches image ids with one batch query.
func (r *Repo) withImages(ctx context.Context, rows []sessionRow) ([]domain.Session, error) {
	out := make([]domain.Session, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = s
		ids[i] = row.ID
	}

	var links []imageLinkRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &links, imageIDsSQL, ids); err != nil {
		return nil, fmt.Errorf("load session images: %w", err)
	}

	byID := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, l := range links {
		byID[l.SessionID] = append(byID[l.SessionID], l.ImageID)
	}
	for i := range out {
		out[i].ImageIDs = byID[out[i].ID]
	}
	return out, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
