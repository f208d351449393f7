// Package image implements the reference image pool and ground truth storage
// using PostgreSQL. Reservation locks the requested rows in id order and
// flips them in a single UPDATE; session_images.image_id is unique so an
// image can never be linked to two sessions.
package image

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/memorycare-backend/internal/adapter/postgres"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Repo provides reference image and ground truth persistence.
type Repo struct {
	db postgres.Querier
}

// New creates a new image repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const imageColumns = `id, url, object_key, uploader_id, state, uploaded_at`

const createSQL = `
INSERT INTO reference_images (id, url, object_key, uploader_id, state, uploaded_at)
VALUES ($1, $2, $3, $4, 'free', $5)
RETURNING ` + imageColumns

const getByIDSQL = `
SELECT ` + imageColumns + `
FROM reference_images
WHERE id = $1`

const getByIDsSQL = `
SELECT ` + imageColumns + `
FROM reference_images
WHERE id = ANY($1)`

const listByUploaderSQL = `
SELECT ` + imageColumns + `
FROM reference_images
WHERE uploader_id = $1 AND ($2::image_state IS NULL OR state = $2)
ORDER BY uploaded_at DESC, id`

const lockSQL = `
SELECT ` + imageColumns + `
FROM reference_images
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`

const markAssignedSQL = `
UPDATE reference_images
SET state = 'assigned_to_session'
WHERE id = ANY($1) AND state = 'free'`

const markFreeSQL = `
UPDATE reference_images
SET state = 'free'
WHERE id = $1`

const isLinkedSQL = `
SELECT EXISTS(SELECT 1 FROM session_images WHERE image_id = $1)`

const groundTruthColumns = `id, image_id, description, keywords, guide_questions, updated_at`

const upsertGroundTruthSQL = `
INSERT INTO ground_truths (id, image_id, description, keywords, guide_questions, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (image_id) DO UPDATE
SET description = EXCLUDED.description,
    keywords = EXCLUDED.keywords,
    guide_questions = EXCLUDED.guide_questions,
    updated_at = EXCLUDED.updated_at
RETURNING ` + groundTruthColumns

const getGroundTruthSQL = `
SELECT ` + groundTruthColumns + `
FROM ground_truths
WHERE image_id = $1`

const getGroundTruthsSQL = `
SELECT ` + groundTruthColumns + `
FROM ground_truths
WHERE image_id = ANY($1)`

// ---------------------------------------------------------------------------
// Image operations
// ---------------------------------------------------------------------------

// Create registers an uploaded image in the free state.
func (r *Repo) Create(ctx context.Context, img domain.ReferenceImage) (*domain.ReferenceImage, error) {
	uploadedAt := img.UploadedAt.UTC().Truncate(time.Microsecond)

	row := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, createSQL,
		img.ID, img.URL, img.ObjectKey, img.UploaderID, uploadedAt,
	)
	created, err := scanImage(row)
	if err != nil {
		return nil, postgres.MapError(err, "reference_image", img.ID)
	}
	return created, nil
}

// GetByID returns an image by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReferenceImage, error) {
	img, err := scanImage(postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "reference_image", id)
	}
	return img, nil
}

// GetByIDs returns the images with the given ids in the order of ids.
// Unknown ids are skipped.
func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ReferenceImage, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, getByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("get reference_images by ids: %w", err)
	}
	defer rows.Close()

	found, err := scanImages(rows)
	if err != nil {
		return nil, fmt.Errorf("get reference_images by ids: %w", err)
	}

	byID := make(map[uuid.UUID]domain.ReferenceImage, len(found))
	for _, img := range found {
		byID[img.ID] = img
	}
	out := make([]domain.ReferenceImage, 0, len(ids))
	for _, id := range ids {
		if img, ok := byID[id]; ok {
			out = append(out, img)
		}
	}
	return out, nil
}

// ListByUploader returns the images uploaded by a caregiver, newest first.
// A nil state returns images in any state.
func (r *Repo) ListByUploader(ctx context.Context, uploaderID uuid.UUID, state *domain.ImageState) ([]domain.ReferenceImage, error) {
	var stateArg *string
	if state != nil {
		s := string(*state)
		stateArg = &s
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, listByUploaderSQL, uploaderID, stateArg)
	if err != nil {
		return nil, fmt.Errorf("list reference_images by uploader: %w", err)
	}
	defer rows.Close()

	images, err := scanImages(rows)
	if err != nil {
		return nil, fmt.Errorf("list reference_images by uploader: %w", err)
	}
	return images, nil
}

// LockForReservation locks the requested image rows for the rest of the
// surrounding transaction and returns them. Must run inside RunInTx.
func (r *Repo) LockForReservation(ctx context.Context, ids []uuid.UUID) ([]domain.ReferenceImage, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, lockSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("lock reference_images: %w", err)
	}
	defer rows.Close()

	images, err := scanImages(rows)
	if err != nil {
		return nil, fmt.Errorf("lock reference_images: %w", err)
	}
	return images, nil
}

// MarkAssigned flips free images to assigned_to_session and returns how
// many rows changed.
func (r *Repo) MarkAssigned(ctx context.Context, ids []uuid.UUID) (int64, error) {
	ct, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, markAssignedSQL, ids)
	if err != nil {
		return 0, fmt.Errorf("mark reference_images assigned: %w", err)
	}
	return ct.RowsAffected(), nil
}

// MarkFree returns an image to the pool.
func (r *Repo) MarkFree(ctx context.Context, id uuid.UUID) error {
	ct, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, markFreeSQL, id)
	if err != nil {
		return postgres.MapError(err, "reference_image", id)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("reference_image %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// IsLinkedToSession reports whether any session still references the image.
func (r *Repo) IsLinkedToSession(ctx context.Context, id uuid.UUID) (bool, error) {
	var linked bool
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, isLinkedSQL, id).Scan(&linked); err != nil {
		return false, fmt.Errorf("check reference_image %s session link: %w", id, err)
	}
	return linked, nil
}

// ---------------------------------------------------------------------------
// Ground truth operations
// ---------------------------------------------------------------------------

// UpsertGroundTruth stores the ground truth of an image, replacing any
// previous version. The id of the first version is kept.
func (r *Repo) UpsertGroundTruth(ctx context.Context, gt domain.GroundTruth) (*domain.GroundTruth, error) {
	updatedAt := gt.UpdatedAt.UTC().Truncate(time.Microsecond)

	row := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, upsertGroundTruthSQL,
		gt.ID, gt.ImageID, gt.Description, nonNil(gt.Keywords), nonNil(gt.GuideQuestions), updatedAt,
	)
	stored, err := scanGroundTruth(row)
	if err != nil {
		return nil, postgres.MapError(err, "ground_truth", gt.ImageID)
	}
	return stored, nil
}

// GetGroundTruth returns the ground truth of an image.
// Returns domain.ErrNotFound if none was written yet.
func (r *Repo) GetGroundTruth(ctx context.Context, imageID uuid.UUID) (*domain.GroundTruth, error) {
	gt, err := scanGroundTruth(postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, getGroundTruthSQL, imageID))
	if err != nil {
		return nil, postgres.MapError(err, "ground_truth", imageID)
	}
	return gt, nil
}

// GetGroundTruths returns the ground truths of the given images keyed by image id.
func (r *Repo) GetGroundTruths(ctx context.Context, imageIDs []uuid.UUID) (map[uuid.UUID]domain.GroundTruth, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, getGroundTruthsSQL, imageIDs)
	if err != nil {
		return nil, fmt.Errorf("get ground_truths: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.GroundTruth, len(imageIDs))
	for rows.Next() {
		gt, err := scanGroundTruth(rows)
		if err != nil {
			return nil, fmt.Errorf("get ground_truths: %w", err)
		}
		out[gt.ImageID] = *gt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get ground_truths: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanImage(row pgx.Row) (*domain.ReferenceImage, error) {
	var (
		img   domain.ReferenceImage
		state string
	)
	if err := row.Scan(&img.ID, &img.URL, &img.ObjectKey, &img.UploaderID, &state, &img.UploadedAt); err != nil {
		return nil, err
	}
	img.State = domain.ImageState(state)
	return &img, nil
}

func scanImages(rows pgx.Rows) ([]domain.ReferenceImage, error) {
	images := []domain.ReferenceImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

func scanGroundTruth(row pgx.Row) (*domain.GroundTruth, error) {
	var gt domain.GroundTruth
	if err := row.Scan(&gt.ID, &gt.ImageID, &gt.Description, &gt.Keywords, &gt.GuideQuestions, &gt.UpdatedAt); err != nil {
		return nil, err
	}
	return &gt, nil
}

// nonNil keeps NOT NULL text[] columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
