package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a doctor, caregiver, patient or administrator.
type Profile struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// CareAssignment links one caregiver to one patient.
type CareAssignment struct {
	CaregiverID uuid.UUID
	PatientID   uuid.UUID
	CreatedAt   time.Time
}

// Cardinality limits of the care relationship.
const (
	MaxPatientsPerCaregiver = 1
	MaxCaregiversPerPatient = 3
)

// AuditRecord logs a mutation event on a domain entity.
type AuditRecord struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	EntityType EntityType
	EntityID   *uuid.UUID
	Action     AuditAction
	Changes    map[string]any
	CreatedAt  time.Time
}

// Notification is a fire-and-forget event addressed to one recipient.
type Notification struct {
	Kind        NotificationKind
	RecipientID uuid.UUID
	SessionID   uuid.UUID
	PatientID   uuid.UUID
	OccurredAt  time.Time
}
