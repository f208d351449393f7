package assignment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postgres "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/assignment"
	"github.com/heartmarshall/memorycare-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

func TestRepo_Integration_CaregiverSingleAssignment(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := assignment.New(pool)
	ctx := context.Background()

	caregiver := testhelper.SeedProfile(t, pool, domain.RoleCaregiver)
	p1 := testhelper.SeedProfile(t, pool, domain.RolePatient)
	p2 := testhelper.SeedProfile(t, pool, domain.RolePatient)

	_, err := repo.Create(ctx, domain.CareAssignment{CaregiverID: caregiver.ID, PatientID: p1.ID, CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.CareAssignment{CaregiverID: caregiver.ID, PatientID: p2.ID, CreatedAt: time.Now()})
	require.ErrorIs(t, err, domain.ErrCaregiverUnavailable)

	got, err := repo.GetByCaregiver(ctx, caregiver.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.PatientID)
}

func TestRepo_Integration_PatientCapacityTrigger(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := assignment.New(pool)
	ctx := context.Background()

	patient := testhelper.SeedProfile(t, pool, domain.RolePatient)
	for i := 0; i < domain.MaxCaregiversPerPatient; i++ {
		cg := testhelper.SeedProfile(t, pool, domain.RoleCaregiver)
		_, err := repo.Create(ctx, domain.CareAssignment{CaregiverID: cg.ID, PatientID: patient.ID, CreatedAt: time.Now()})
		require.NoError(t, err)
	}

	fourth := testhelper.SeedProfile(t, pool, domain.RoleCaregiver)
	_, err := repo.Create(ctx, domain.CareAssignment{CaregiverID: fourth.ID, PatientID: patient.ID, CreatedAt: time.Now()})
	require.ErrorIs(t, err, domain.ErrPatientAtCapacity)

	n, err := repo.CountForPatient(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxCaregiversPerPatient, n)

	caregivers, err := repo.ListCaregivers(ctx, patient.ID)
	require.NoError(t, err)
	assert.Len(t, caregivers, domain.MaxCaregiversPerPatient)
}

func TestRepo_Integration_ConcurrentAssignmentsRespectCapacity(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := assignment.New(pool)
	tm := postgres.NewTxManager(pool)

	patient := testhelper.SeedProfile(t, pool, domain.RolePatient)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		atCap     int
	)
	for i := 0; i < attempts; i++ {
		cg := testhelper.SeedProfile(t, pool, domain.RoleCaregiver)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
				if _, err := repo.LockProfiles(ctx, cg.ID, patient.ID); err != nil {
					return err
				}
				_, err := repo.Create(ctx, domain.CareAssignment{CaregiverID: cg.ID, PatientID: patient.ID, CreatedAt: time.Now()})
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrPatientAtCapacity):
				atCap++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.MaxCaregiversPerPatient, succeeded)
	assert.Equal(t, attempts-domain.MaxCaregiversPerPatient, atCap)
}

func TestRepo_Integration_DeleteIsIdempotent(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := assignment.New(pool)
	ctx := context.Background()

	caregiver := testhelper.SeedProfile(t, pool, domain.RoleCaregiver)
	patient := testhelper.SeedProfile(t, pool, domain.RolePatient)
	testhelper.SeedAssignment(t, pool, caregiver.ID, patient.ID)

	removed, err := repo.Delete(ctx, caregiver.ID, patient.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, caregiver.ID, patient.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.GetByCaregiver(ctx, caregiver.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
