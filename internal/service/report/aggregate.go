package report

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Summarize aggregates a patient's completed sessions. Sessions without
// rates are ignored; the rest are ordered by creation time before the
// first/last comparison.
//
// SlopePerDay is the two-point secant (last-first)/days, not a regression,
// and is set only for two or more sessions spread over a positive time.
func Summarize(sessions []domain.Session) domain.Summary {
	rated := lo.Filter(sessions, func(s domain.Session, _ int) bool {
		return s.Rates != nil
	})
	if len(rated) == 0 {
		return domain.Summary{Trend: domain.TrendStable}
	}

	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].CreatedAt.Before(rated[j].CreatedAt)
	})

	first, last := rated[0], rated[len(rated)-1]
	sum := domain.Summary{
		Count:             len(rated),
		AvgSessionTotal:   lo.SumBy(rated, func(s domain.Session) float64 { return s.Rates.Total }) / float64(len(rated)),
		AvgRecall:         lo.SumBy(rated, func(s domain.Session) float64 { return s.Rates.Exactness }) / float64(len(rated)),
		FirstSessionTotal: first.Rates.Total,
		LastSessionTotal:  last.Rates.Total,
	}

	diff := sum.LastSessionTotal - sum.FirstSessionTotal
	sum.Trend = classify(diff)

	if sum.Count >= 2 {
		if elapsed := last.CreatedAt.Sub(first.CreatedAt); elapsed > 0 {
			slope := diff / (float64(elapsed) / float64(24*time.Hour))
			if !math.IsInf(slope, 0) && !math.IsNaN(slope) {
				sum.SlopePerDay = &slope
			}
		}
	}

	return sum
}

// classify compares at 1e-9 so that float noise on a difference of exactly
// TrendThreshold does not leave the stable band.
func classify(diff float64) domain.Trend {
	diff = math.Round(diff*1e9) / 1e9
	switch {
	case diff > domain.TrendThreshold:
		return domain.TrendImproving
	case diff < -domain.TrendThreshold:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}
