// Package assignment implements the care-assignment registry storage.
//
// Cardinality is enforced by the schema: the primary key on caregiver_id
// keeps a caregiver in at most one assignment, and a BEFORE INSERT trigger
// keeps a patient at no more than three. Violations surface as the matching
// domain conflicts through postgres.MapError.
package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Repo provides care-assignment persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new assignment repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

// Rows are locked in id order so two transactions locking the same pair
// cannot deadlock.
const lockProfilesSQL = `
SELECT id, role
FROM users
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`

const createSQL = `
INSERT INTO care_assignments (caregiver_id, patient_id, created_at)
VALUES ($1, $2, $3)
RETURNING caregiver_id, patient_id, created_at`

const deleteSQL = `
DELETE FROM care_assignments
WHERE caregiver_id = $1 AND patient_id = $2`

const getByCaregiverSQL = `
SELECT caregiver_id, patient_id, created_at
FROM care_assignments
WHERE caregiver_id = $1`

const countForPatientSQL = `
SELECT count(*) FROM care_assignments WHERE patient_id = $1`

const listCaregiversSQL = `
SELECT u.id, u.name, u.email, u.role, u.created_at
FROM care_assignments ca
JOIN users u ON u.id = ca.caregiver_id
WHERE ca.patient_id = $1
ORDER BY ca.created_at, u.id`

type assignmentRow struct {
	CaregiverID uuid.UUID `db:"caregiver_id"`
	PatientID   uuid.UUID `db:"patient_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r assignmentRow) toDomain() domain.CareAssignment {
	return domain.CareAssignment{
		CaregiverID: r.CaregiverID,
		PatientID:   r.PatientID,
		CreatedAt:   r.CreatedAt,
	}
}

type roleRow struct {
	ID   uuid.UUID `db:"id"`
	Role string    `db:"role"`
}

type profileRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// LockProfiles takes row locks on the given profiles for the rest of the
// surrounding transaction and returns their roles. Missing ids are absent
// from the result.
func (r *Repo) LockProfiles(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	var rows []roleRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, lockProfilesSQL, ids); err != nil {
		return nil, fmt.Errorf("lock profiles: %w", err)
	}

	roles := make(map[uuid.UUID]domain.Role, len(rows))
	for _, row := range rows {
		roles[row.ID] = domain.Role(row.Role)
	}
	return roles, nil
}

// Create inserts an assignment.
// Returns domain.ErrCaregiverUnavailable or domain.ErrPatientAtCapacity when
// the schema guards reject it.
func (r *Repo) Create(ctx context.Context, a domain.CareAssignment) (*domain.CareAssignment, error) {
	createdAt := a.CreatedAt.UTC().Truncate(time.Microsecond)

	var out assignmentRow
	err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, createSQL,
		a.CaregiverID, a.PatientID, createdAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "care_assignment", a.CaregiverID)
	}

	created := out.toDomain()
	return &created, nil
}

// Delete removes the assignment if it exists and reports whether a row was removed.
func (r *Repo) Delete(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	ct, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, deleteSQL, caregiverID, patientID)
	if err != nil {
		return false, postgres.MapError(err, "care_assignment", caregiverID)
	}
	return ct.RowsAffected() > 0, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByCaregiver returns the caregiver's current assignment.
// Returns domain.ErrNotFound if the caregiver is unassigned.
func (r *Repo) GetByCaregiver(ctx context.Context, caregiverID uuid.UUID) (*domain.CareAssignment, error) {
	var out assignmentRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, getByCaregiverSQL, caregiverID); err != nil {
		return nil, postgres.MapError(err, "care_assignment", caregiverID)
	}
	a := out.toDomain()
	return &a, nil
}

// CountForPatient returns the number of caregivers linked to a patient.
func (r *Repo) CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, countForPatientSQL, patientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count caregivers for patient %s: %w", patientID, err)
	}
	return n, nil
}

// ListCaregivers returns the caregivers linked to a patient in assignment order.
func (r *Repo) ListCaregivers(ctx context.Context, patientID uuid.UUID) ([]domain.Profile, error) {
	var rows []profileRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, listCaregiversSQL, patientID); err != nil {
		return nil, fmt.Errorf("list caregivers for patient %s: %w", patientID, err)
	}

	out := make([]domain.Profile, len(rows))
	for i, row := range rows {
		out[i] = domain.Profile{
			ID:        row.ID,
			Name:      row.Name,
			Email:     row.Email,
			Role:      domain.Role(row.Role),
			CreatedAt: row.CreatedAt,
		}
	}
	return out, nil
}
