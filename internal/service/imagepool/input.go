package imagepool

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const (
	maxURLLength         = 2048
	maxDescriptionLength = 4000
	maxKeywords          = 30
	maxGuideQuestions    = 10
	maxQuestionLength    = 300
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// RegisterInput records an uploaded image. Either URL or ObjectKey must be
// set; with only an ObjectKey the URL is derived from the storage bucket.
type RegisterInput struct {
	UploaderID uuid.UUID
	URL        string
	ObjectKey  string
}

// Validate checks all fields and collects all errors.
func (i RegisterInput) Validate() error {
	var errs []domain.FieldError

	if i.UploaderID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "uploader_id", Message: "required"})
	}

	rawURL := strings.TrimSpace(i.URL)
	switch {
	case rawURL == "" && strings.TrimSpace(i.ObjectKey) == "":
		errs = append(errs, domain.FieldError{Field: "url", Message: "url or object_key required"})
	case rawURL != "":
		if len(rawURL) > maxURLLength {
			errs = append(errs, domain.FieldError{Field: "url", Message: "too long"})
		} else if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, domain.FieldError{Field: "url", Message: "must be an absolute http(s) URL"})
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RequestUploadInput asks for a presigned upload target.
type RequestUploadInput struct {
	UploaderID  uuid.UUID
	ContentType string
}

// Validate checks all fields and collects all errors.
func (i RequestUploadInput) Validate() error {
	var errs []domain.FieldError

	if i.UploaderID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "uploader_id", Message: "required"})
	}
	if _, ok := allowedContentTypes[i.ContentType]; !ok {
		errs = append(errs, domain.FieldError{Field: "content_type", Message: "must be image/jpeg, image/png or image/webp"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// GroundTruthInput sets the reference description of an image.
type GroundTruthInput struct {
	ImageID        uuid.UUID
	Description    string
	Keywords       []string
	GuideQuestions []string
}

// Validate checks all fields and collects all errors.
func (i GroundTruthInput) Validate() error {
	var errs []domain.FieldError

	if i.ImageID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "image_id", Message: "required"})
	}

	desc := strings.TrimSpace(i.Description)
	if desc == "" {
		errs = append(errs, domain.FieldError{Field: "description", Message: "required"})
	} else if len(desc) > maxDescriptionLength {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}

	if len(domain.NormalizeKeywords(i.Keywords)) == 0 {
		errs = append(errs, domain.FieldError{Field: "keywords", Message: "at least one keyword required"})
	} else if len(i.Keywords) > maxKeywords {
		errs = append(errs, domain.FieldError{Field: "keywords", Message: "too many keywords"})
	}

	if len(i.GuideQuestions) > maxGuideQuestions {
		errs = append(errs, domain.FieldError{Field: "guide_questions", Message: "too many questions"})
	}
	for _, q := range i.GuideQuestions {
		if len(q) > maxQuestionLength {
			errs = append(errs, domain.FieldError{Field: "guide_questions", Message: "question too long"})
			break
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
