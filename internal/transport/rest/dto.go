package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

type profileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toProfileResponse(p domain.Profile) profileResponse {
	return profileResponse{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role.String(), CreatedAt: p.CreatedAt}
}

type assignmentResponse struct {
	CaregiverID uuid.UUID `json:"caregiver_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type imageResponse struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	ObjectKey  *string   `json:"object_key,omitempty"`
	UploaderID uuid.UUID `json:"uploader_id"`
	State      string    `json:"state"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func toImageResponse(img domain.ReferenceImage) imageResponse {
	return imageResponse{
		ID:         img.ID,
		URL:        img.URL,
		ObjectKey:  img.ObjectKey,
		UploaderID: img.UploaderID,
		State:      img.State.String(),
		UploadedAt: img.UploadedAt,
	}
}

type uploadTicketResponse struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type groundTruthResponse struct {
	ImageID        uuid.UUID `json:"image_id"`
	Description    string    `json:"description"`
	Keywords       []string  `json:"keywords"`
	GuideQuestions []string  `json:"guide_questions"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toGroundTruthResponse(gt domain.GroundTruth) groundTruthResponse {
	return groundTruthResponse{
		ImageID:        gt.ImageID,
		Description:    gt.Description,
		Keywords:       nonNil(gt.Keywords),
		GuideQuestions: nonNil(gt.GuideQuestions),
		UpdatedAt:      gt.UpdatedAt,
	}
}

type ratesResponse struct {
	Omission   float64 `json:"omission"`
	Commission float64 `json:"commission"`
	Exactness  float64 `json:"exactness"`
	Coherence  float64 `json:"coherence"`
	Fluency    float64 `json:"fluency"`
	Total      float64 `json:"total"`
}

func toRatesResponse(r domain.Rates) ratesResponse {
	return ratesResponse(r)
}

type conclusionsResponse struct {
	Technical string `json:"technical"`
	Plain     string `json:"plain"`
}

type noteResponse struct {
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	ID          uuid.UUID            `json:"id"`
	PatientID   uuid.UUID            `json:"patient_id"`
	CaregiverID uuid.UUID            `json:"caregiver_id"`
	ImageIDs    []uuid.UUID          `json:"image_ids"`
	Active      bool                 `json:"active"`
	Status      string               `json:"status"`
	Rates       *ratesResponse       `json:"rates,omitempty"`
	Conclusions *conclusionsResponse `json:"conclusions,omitempty"`
	Notes       []noteResponse       `json:"notes"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	resp := sessionResponse{
		ID:          s.ID,
		PatientID:   s.PatientID,
		CaregiverID: s.CaregiverID,
		ImageIDs:    s.ImageIDs,
		Active:      s.Active,
		Status:      s.Status.String(),
		Notes:       make([]noteResponse, len(s.Notes)),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		CompletedAt: s.CompletedAt,
	}
	for i, n := range s.Notes {
		resp.Notes[i] = noteResponse(n)
	}
	if s.Rates != nil {
		r := toRatesResponse(*s.Rates)
		resp.Rates = &r
	}
	if s.Conclusions != nil {
		resp.Conclusions = &conclusionsResponse{Technical: s.Conclusions.Technical, Plain: s.Conclusions.Plain}
	}
	return resp
}

func toSessionList(sessions []domain.Session) []sessionResponse {
	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = toSessionResponse(s)
	}
	return out
}

type descriptionResponse struct {
	ID          uuid.UUID `json:"id"`
	ImageID     uuid.UUID `json:"image_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
	Scoring     bool      `json:"scoring"`
}

func toDescriptionResponse(d domain.Description) descriptionResponse {
	return descriptionResponse{
		ID:          d.ID,
		ImageID:     d.ImageID,
		Text:        d.Text,
		SubmittedAt: d.SubmittedAt,
		Scoring:     d.ScoringClaimedAt != nil,
	}
}

type scoreResponse struct {
	Rates           ratesResponse `json:"rates"`
	Hits            []string      `json:"hits"`
	OmittedDetails  []string      `json:"omitted_details"`
	OmittedKeywords []string      `json:"omitted_keywords"`
	AddedElements   []string      `json:"added_elements"`
	Conclusion      string        `json:"conclusion"`
	CreatedAt       time.Time     `json:"created_at"`
}

func toScoreResponse(s domain.Score) scoreResponse {
	return scoreResponse{
		Rates:           toRatesResponse(s.Rates),
		Hits:            nonNil(s.Hits),
		OmittedDetails:  nonNil(s.OmittedDetails),
		OmittedKeywords: nonNil(s.OmittedKeywords),
		AddedElements:   nonNil(s.AddedElements),
		Conclusion:      s.Conclusion,
		CreatedAt:       s.CreatedAt,
	}
}

type sessionItemResponse struct {
	Image       imageResponse        `json:"image"`
	GroundTruth *groundTruthResponse `json:"ground_truth,omitempty"`
	Description *descriptionResponse `json:"description,omitempty"`
	Score       *scoreResponse       `json:"score,omitempty"`
}

type sessionDetailResponse struct {
	sessionResponse
	Items []sessionItemResponse `json:"items"`
}

// toSessionDetailResponse renders a session with its items. Ground truths
// are withheld from patients.
func toSessionDetailResponse(d domain.SessionDetail, withGroundTruth bool) sessionDetailResponse {
	resp := sessionDetailResponse{
		sessionResponse: toSessionResponse(d.Session),
		Items:           make([]sessionItemResponse, len(d.Items)),
	}
	for i, item := range d.Items {
		out := sessionItemResponse{Image: toImageResponse(item.Image)}
		if item.GroundTruth != nil && withGroundTruth {
			gt := toGroundTruthResponse(*item.GroundTruth)
			out.GroundTruth = &gt
		}
		if item.Description != nil {
			desc := toDescriptionResponse(*item.Description)
			out.Description = &desc
		}
		if item.Score != nil {
			sc := toScoreResponse(*item.Score)
			out.Score = &sc
		}
		resp.Items[i] = out
	}
	return resp
}

type descriptionResultResponse struct {
	Description descriptionResponse `json:"description"`
	Score       scoreResponse       `json:"score"`
	Session     sessionResponse     `json:"session"`
}

type summaryResponse struct {
	Count             int      `json:"count"`
	AvgSessionTotal   float64  `json:"avg_session_total"`
	AvgRecall         float64  `json:"avg_recall"`
	FirstSessionTotal float64  `json:"first_session_total"`
	LastSessionTotal  float64  `json:"last_session_total"`
	Trend             string   `json:"trend"`
	SlopePerDay       *float64 `json:"slope_per_day,omitempty"`
}

type periodResponse struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

type reportResponse struct {
	PatientID   uuid.UUID         `json:"patient_id"`
	PatientName string            `json:"patient_name"`
	Period      periodResponse    `json:"period"`
	Summary     summaryResponse   `json:"summary"`
	Sessions    []sessionResponse `json:"sessions"`
}

func toReportResponse(r domain.PatientReport) reportResponse {
	return reportResponse{
		PatientID:   r.PatientID,
		PatientName: r.PatientName,
		Period:      periodResponse(r.Period),
		Summary: summaryResponse{
			Count:             r.Summary.Count,
			AvgSessionTotal:   r.Summary.AvgSessionTotal,
			AvgRecall:         r.Summary.AvgRecall,
			FirstSessionTotal: r.Summary.FirstSessionTotal,
			LastSessionTotal:  r.Summary.LastSessionTotal,
			Trend:             r.Summary.Trend.String(),
			SlopePerDay:       r.Summary.SlopePerDay,
		},
		Sessions: toSessionList(r.Sessions),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
