package session

import (
	"fmt"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Total-rate bands of the template conclusion.
const (
	highRecall = 0.75
	midRecall  = 0.5
)

// templateConclusions writes conclusions locally from the mean rates.
func templateConclusions(r domain.Rates) domain.Conclusions {
	technical := fmt.Sprintf(
		"Total %.2f. Exactness %.2f, omission %.2f, commission %.2f, coherence %.2f, fluency %.2f.",
		r.Total, r.Exactness, r.Omission, r.Commission, r.Coherence, r.Fluency,
	)

	var plain string
	switch {
	case r.Total >= highRecall:
		plain = "El paciente recordó la mayoría de los detalles de las imágenes."
	case r.Total >= midRecall:
		plain = "El paciente recordó parte de los detalles de las imágenes."
	default:
		plain = "El paciente recordó pocos detalles de las imágenes."
	}
	if r.Commission > r.Exactness {
		plain += " Añadió más elementos inexistentes de los que reconoció."
	}

	return domain.Conclusions{Technical: technical, Plain: plain}
}
