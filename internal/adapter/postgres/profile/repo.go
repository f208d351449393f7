// Package profile implements the identity/profile store using PostgreSQL.
// Rows are scanned with scany into tagged structs.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Repo provides profile persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new profile repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const profileColumns = `id, name, email, role, created_at`

const getByIDSQL = `
SELECT ` + profileColumns + `
FROM users
WHERE id = $1`

const createSQL = `
INSERT INTO users (id, name, email, role, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + profileColumns

// row is the scany scan target for the users table.
type row struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (r row) toDomain() domain.Profile {
	return domain.Profile{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

// GetByID returns a profile by primary key.
// Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, getByIDSQL, id); err != nil {
		return nil, postgres.MapError(err, "profile", id)
	}
	p := out.toDomain()
	return &p, nil
}

// Create inserts a new profile. A duplicate email yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	createdAt := p.CreatedAt.UTC().Truncate(time.Microsecond)
	if p.CreatedAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	var out row
	err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, createSQL,
		p.ID, p.Name, p.Email, string(p.Role), createdAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "profile", p.ID)
	}

	created := out.toDomain()
	return &created, nil
}

// GetName returns only the display name of a profile.
func (r *Repo) GetName(ctx context.Context, id uuid.UUID) (string, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get profile name: %w", err)
	}
	return p.Name, nil
}
