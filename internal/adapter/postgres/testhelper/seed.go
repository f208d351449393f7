package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedProfile inserts a profile with the given role.
func SeedProfile(t *testing.T, pool *pgxpool.Pool, role domain.Role) domain.Profile {
	t.Helper()

	suffix := uniqueSuffix()
	p := domain.Profile{
		ID:        uuid.New(),
		Name:      string(role) + " " + suffix,
		Email:     string(role) + "-" + suffix + "@example.com",
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.Email, string(p.Role), p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedProfile: %v", err)
	}
	return p
}

// SeedAssignment links caregiver to patient directly, bypassing the service.
func SeedAssignment(t *testing.T, pool *pgxpool.Pool, caregiverID, patientID uuid.UUID) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO care_assignments (caregiver_id, patient_id) VALUES ($1, $2)`,
		caregiverID, patientID,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAssignment: %v", err)
	}
}

// SeedImage inserts a free reference image uploaded by uploaderID.
func SeedImage(t *testing.T, pool *pgxpool.Pool, uploaderID uuid.UUID) domain.ReferenceImage {
	t.Helper()

	img := domain.ReferenceImage{
		ID:         uuid.New(),
		URL:        "https://cdn.example.com/photos/" + uniqueSuffix() + ".jpg",
		UploaderID: uploaderID,
		State:      domain.ImageStateFree,
		UploadedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO reference_images (id, url, uploader_id, state, uploaded_at) VALUES ($1, $2, $3, $4, $5)`,
		img.ID, img.URL, img.UploaderID, string(img.State), img.UploadedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedImage: %v", err)
	}
	return img
}

// SeedImages inserts n free images uploaded by uploaderID.
func SeedImages(t *testing.T, pool *pgxpool.Pool, uploaderID uuid.UUID, n int) []domain.ReferenceImage {
	t.Helper()

	images := make([]domain.ReferenceImage, n)
	for i := range images {
		images[i] = SeedImage(t, pool, uploaderID)
	}
	return images
}

// ImageIDs returns the ids of images in order.
func ImageIDs(images []domain.ReferenceImage) []uuid.UUID {
	ids := make([]uuid.UUID, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	return ids
}

// ImageState reads the current state of an image.
func ImageState(t *testing.T, pool *pgxpool.Pool, imageID uuid.UUID) domain.ImageState {
	t.Helper()

	var state string
	err := pool.QueryRow(context.Background(),
		`SELECT state FROM reference_images WHERE id = $1`, imageID,
	).Scan(&state)
	if err != nil {
		t.Fatalf("testhelper: ImageState: %v", err)
	}
	return domain.ImageState(state)
}
