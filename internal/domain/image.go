package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReferenceImage is an uploaded photograph. Its state moves from free to
// assigned_to_session once and is never reverted automatically.
type ReferenceImage struct {
	ID         uuid.UUID
	URL        string
	ObjectKey  *string
	UploaderID uuid.UUID
	State      ImageState
	UploadedAt time.Time
}

// IsFree reports whether the image can still be reserved.
func (i *ReferenceImage) IsFree() bool {
	return i.State == ImageStateFree
}

// GroundTruth is the caregiver-authored reference description of an image.
type GroundTruth struct {
	ID             uuid.UUID
	ImageID        uuid.UUID
	Description    string
	Keywords       []string
	GuideQuestions []string
	UpdatedAt      time.Time
}

// UploadTicket is a presigned object-storage upload target.
type UploadTicket struct {
	ObjectKey string
	UploadURL string
	PublicURL string
	ExpiresAt time.Time
}
