package session

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const (
	maxDescriptionLength = 5000
	maxNoteLength        = 4000
	maxNotes             = 200
)

// CreateInput opens a new session for a patient.
type CreateInput struct {
	PatientID   uuid.UUID
	CaregiverID uuid.UUID
	ImageIDs    []uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError

	if i.PatientID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "patient_id", Message: "required"})
	}
	if i.CaregiverID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "caregiver_id", Message: "required"})
	}
	if err := domain.ValidateImageSelection(i.ImageIDs); err != nil {
		errs = append(errs, domain.ErrInvalidImageSelection.Errors...)
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// SubmitDescriptionInput is a patient's description of one session image.
type SubmitDescriptionInput struct {
	SessionID uuid.UUID
	ImageID   uuid.UUID
	PatientID uuid.UUID
	Text      string
}

// Validate checks all fields and collects all errors.
func (i SubmitDescriptionInput) Validate() error {
	var errs []domain.FieldError

	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if i.ImageID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "image_id", Message: "required"})
	}
	if i.PatientID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "patient_id", Message: "required"})
	}

	text := strings.TrimSpace(i.Text)
	if text == "" {
		errs = append(errs, domain.FieldError{Field: "text", Message: "required"})
	} else if utf8.RuneCountInString(text) > maxDescriptionLength {
		errs = append(errs, domain.FieldError{Field: "text", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// AddNoteInput appends a doctor note to a session.
type AddNoteInput struct {
	SessionID uuid.UUID
	AuthorID  uuid.UUID
	Text      string
}

// Validate checks all fields and collects all errors.
func (i AddNoteInput) Validate() error {
	var errs []domain.FieldError

	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if i.AuthorID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "author_id", Message: "required"})
	}
	errs = append(errs, validateNoteText("text", i.Text)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// NoteInput is one entry of a replacement note list. A zero CreatedAt is
// stamped with the time of the replacement.
type NoteInput struct {
	AuthorID  uuid.UUID
	Text      string
	CreatedAt time.Time
}

// ReplaceNotesInput rewrites a session's whole note list.
type ReplaceNotesInput struct {
	SessionID uuid.UUID
	Notes     []NoteInput
}

// Validate checks all fields and collects all errors.
func (i ReplaceNotesInput) Validate() error {
	var errs []domain.FieldError

	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if len(i.Notes) > maxNotes {
		errs = append(errs, domain.FieldError{Field: "notes", Message: "too many notes"})
	}
	for idx, n := range i.Notes {
		if n.AuthorID == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: fieldAt("notes", idx, "author_id"), Message: "required"})
		}
		errs = append(errs, validateNoteText(fieldAt("notes", idx, "text"), n.Text)...)
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ListInput narrows a patient's session listing.
type ListInput struct {
	PatientID  uuid.UUID
	Status     *domain.SessionStatus
	ActiveOnly bool
	Limit      int
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError

	if i.PatientID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "patient_id", Message: "required"})
	}
	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be pending, en_curso or completado"})
	}
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateNoteText(field, text string) []domain.FieldError {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return []domain.FieldError{{Field: field, Message: "required"}}
	case utf8.RuneCountInString(text) > maxNoteLength:
		return []domain.FieldError{{Field: field, Message: "too long"}}
	}
	return nil
}

func fieldAt(list string, idx int, field string) string {
	return list + "[" + strconv.Itoa(idx) + "]." + field
}
