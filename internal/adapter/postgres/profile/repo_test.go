package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/profile"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

func TestRepo_CreateAndGet(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := profile.New(pool)
	ctx := context.Background()

	id := uuid.New()
	created, err := repo.Create(ctx, domain.Profile{
		ID:        id,
		Name:      "Dra. Elena Soto",
		Email:     "elena-" + id.String()[:8] + "@example.com",
		Role:      domain.RoleDoctor,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, created.Role)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	name, err := repo.GetName(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dra. Elena Soto", name)
}

func TestRepo_Create_DuplicateEmail(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := profile.New(pool)
	ctx := context.Background()

	existing := testhelper.SeedProfile(t, pool, domain.RolePatient)

	_, err := repo.Create(ctx, domain.Profile{
		ID:    uuid.New(),
		Name:  "Copia",
		Email: existing.Email,
		Role:  domain.RolePatient,
	})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := profile.New(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
