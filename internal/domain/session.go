package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImagesPerSession is the fixed number of images an assessment session holds.
const ImagesPerSession = 3

// ErrInvalidImageSelection is returned when a session is not created with
// exactly ImagesPerSession distinct images.
var ErrInvalidImageSelection = NewValidationError("image_ids", "exactly 3 distinct images required")

// ErrIllegalTransition is returned for a state move the lifecycle does not allow.
var ErrIllegalTransition = newConflict("ILLEGAL_TRANSITION", "illegal session state transition")

// ValidateImageSelection checks that ids holds exactly ImagesPerSession
// distinct, non-nil ids.
func ValidateImageSelection(ids []uuid.UUID) error {
	if len(ids) != ImagesPerSession {
		return ErrInvalidImageSelection
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return ErrInvalidImageSelection
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidImageSelection
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Transition validates a state move and returns the resulting status.
// Moving to the current non-terminal status is a no-op. Any move out of
// completado fails with ErrSessionFinalized.
func Transition(from, to SessionStatus) (SessionStatus, error) {
	if !from.IsValid() || !to.IsValid() {
		return from, fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, from, to)
	}
	if from.IsTerminal() {
		return from, ErrSessionFinalized
	}
	if from == to {
		return from, nil
	}
	switch {
	case from == SessionStatusPending && to == SessionStatusInProgress,
		from == SessionStatusPending && to == SessionStatusCompleted,
		from == SessionStatusInProgress && to == SessionStatusCompleted:
		return to, nil
	}
	return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// Rates are the six normalized measures produced for a description, or
// their per-session means.
type Rates struct {
	Omission   float64
	Commission float64
	Exactness  float64
	Coherence  float64
	Fluency    float64
	Total      float64
}

// Validate checks that every rate lies in [0, 1].
func (r Rates) Validate() error {
	var errs []FieldError
	check := func(field string, v float64) {
		if v < 0 || v > 1 || v != v {
			errs = append(errs, FieldError{Field: field, Message: "must be within [0, 1]"})
		}
	}
	check("omission", r.Omission)
	check("commission", r.Commission)
	check("exactness", r.Exactness)
	check("coherence", r.Coherence)
	check("fluency", r.Fluency)
	check("total", r.Total)
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// MeanRates returns the arithmetic mean of each rate. An empty input
// yields zero rates.
func MeanRates(rs []Rates) Rates {
	if len(rs) == 0 {
		return Rates{}
	}
	var sum Rates
	for _, r := range rs {
		sum.Omission += r.Omission
		sum.Commission += r.Commission
		sum.Exactness += r.Exactness
		sum.Coherence += r.Coherence
		sum.Fluency += r.Fluency
		sum.Total += r.Total
	}
	n := float64(len(rs))
	return Rates{
		Omission:   sum.Omission / n,
		Commission: sum.Commission / n,
		Exactness:  sum.Exactness / n,
		Coherence:  sum.Coherence / n,
		Fluency:    sum.Fluency / n,
		Total:      sum.Total / n,
	}
}

// DoctorNote is one timestamped entry of a session's note list.
type DoctorNote struct {
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Conclusions are the technical and plain-language summaries of a session.
type Conclusions struct {
	Technical string
	Plain     string
}

// Session is an assessment round of exactly three images for one patient.
// Rates and Conclusions are present iff Status is completado.
type Session struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	CaregiverID uuid.UUID
	ImageIDs    []uuid.UUID
	Active      bool
	Status      SessionStatus
	Rates       *Rates
	Conclusions *Conclusions
	Notes       []DoctorNote
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// IsCompleted reports whether the session reached its terminal state.
func (s *Session) IsCompleted() bool {
	return s.Status.IsTerminal()
}

// HasImage reports whether imageID is one of the session's images.
func (s *Session) HasImage(imageID uuid.UUID) bool {
	for _, id := range s.ImageIDs {
		if id == imageID {
			return true
		}
	}
	return false
}

// Description is a patient's free-text description of one session image.
// ScoringClaimedAt is set while a scorer call for it is in flight.
type Description struct {
	ID               uuid.UUID
	SessionID        uuid.UUID
	ImageID          uuid.UUID
	PatientID        uuid.UUID
	Text             string
	SubmittedAt      time.Time
	ScoringClaimedAt *time.Time
}

// Score is the immutable grading of one description against its ground truth.
type Score struct {
	ID              uuid.UUID
	DescriptionID   uuid.UUID
	Rates           Rates
	Hits            []string
	OmittedDetails  []string
	OmittedKeywords []string
	AddedElements   []string
	Conclusion      string
	CreatedAt       time.Time
}

// SessionItem is one image of a session in full detail.
type SessionItem struct {
	Image       ReferenceImage
	GroundTruth *GroundTruth
	Description *Description
	Score       *Score
}

// SessionDetail is a session with its images, ground truths,
// descriptions and scores.
type SessionDetail struct {
	Session Session
	Items   []SessionItem
}

// SessionFilter narrows session listings. Zero values mean "no filter".
type SessionFilter struct {
	PatientID   *uuid.UUID
	CaregiverID *uuid.UUID
	Status      *SessionStatus
	ActiveOnly  bool
	OldestFirst bool
	Limit       int
}
