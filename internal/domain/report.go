package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrendThreshold is the fixed band (10% of the [0,1] scale) a first-to-last
// difference must strictly exceed to count as improving or declining.
const TrendThreshold = 0.05

// Summary aggregates a patient's completed sessions.
// SlopePerDay is nil unless there are at least two sessions with strictly
// positive elapsed time between the first and the last.
type Summary struct {
	Count             int
	AvgSessionTotal   float64
	AvgRecall         float64
	FirstSessionTotal float64
	LastSessionTotal  float64
	Trend             Trend
	SlopePerDay       *float64
}

// Period spans the creation times of the first and last reported session.
type Period struct {
	From *time.Time
	To   *time.Time
}

// PatientReport is the doctor-facing view of a patient's progress.
// It is derived on every request and never stored.
type PatientReport struct {
	PatientID   uuid.UUID
	PatientName string
	Period      Period
	Summary     Summary
	Sessions    []Session
}
