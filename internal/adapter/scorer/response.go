package scorer

import "github.com/heartmarshall/memorycare-backend/internal/domain"

type groundTruthPayload struct {
	Description    string   `json:"description"`
	Keywords       []string `json:"keywords"`
	GuideQuestions []string `json:"guide_questions"`
}

type scoreRequest struct {
	Text        string             `json:"text"`
	GroundTruth groundTruthPayload `json:"ground_truth"`
}

type ratesPayload struct {
	Omission   float64 `json:"omission"`
	Commission float64 `json:"commission"`
	Exactness  float64 `json:"exactness"`
	Coherence  float64 `json:"coherence"`
	Fluency    float64 `json:"fluency"`
	Total      float64 `json:"total"`
}

func (p ratesPayload) toDomain() domain.Rates {
	return domain.Rates{
		Omission:   p.Omission,
		Commission: p.Commission,
		Exactness:  p.Exactness,
		Coherence:  p.Coherence,
		Fluency:    p.Fluency,
		Total:      p.Total,
	}
}

func ratesFromDomain(r domain.Rates) ratesPayload {
	return ratesPayload{
		Omission:   r.Omission,
		Commission: r.Commission,
		Exactness:  r.Exactness,
		Coherence:  r.Coherence,
		Fluency:    r.Fluency,
		Total:      r.Total,
	}
}

type scoreResponse struct {
	Rates           ratesPayload `json:"rates"`
	Hits            []string     `json:"hits"`
	OmittedDetails  []string     `json:"omitted_details"`
	OmittedKeywords []string     `json:"omitted_keywords"`
	AddedElements   []string     `json:"added_elements"`
	Conclusion      string       `json:"conclusion"`
}

type concludeRequest struct {
	Rates ratesPayload `json:"rates"`
}

type concludeResponse struct {
	Technical string `json:"technical"`
	Plain     string `json:"plain"`
}

type errorResponse struct {
	Error string `json:"error"`
}
