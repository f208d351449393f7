package domain

// Role is the authorization level of a profile.
type Role string

const (
	RoleDoctor    Role = "doctor"
	RoleCaregiver Role = "caregiver"
	RolePatient   Role = "patient"
	RoleAdmin     Role = "admin"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleDoctor, RoleCaregiver, RolePatient, RoleAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// ImageState tracks whether a reference image has been consumed by a session.
type ImageState string

const (
	ImageStateFree              ImageState = "free"
	ImageStateAssignedToSession ImageState = "assigned_to_session"
)

func (s ImageState) String() string { return string(s) }

func (s ImageState) IsValid() bool {
	switch s {
	case ImageStateFree, ImageStateAssignedToSession:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of an assessment session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "en_curso"
	SessionStatusCompleted  SessionStatus = "completado"
)

func (s SessionStatus) String() string { return string(s) }

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPending, SessionStatusInProgress, SessionStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted
}

// Trend classifies score movement between the first and last session.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

func (t Trend) String() string { return string(t) }

func (t Trend) IsValid() bool {
	switch t {
	case TrendImproving, TrendDeclining, TrendStable:
		return true
	}
	return false
}

// NotificationKind names an event delivered through the notifier.
type NotificationKind string

const (
	NotificationSessionActivated    NotificationKind = "session_activated"
	NotificationSessionDeactivated  NotificationKind = "session_deactivated"
	NotificationBaselineEstablished NotificationKind = "baseline_established"
)

func (k NotificationKind) String() string { return string(k) }

// EntityType identifies the kind of domain entity (used in audit logs).
type EntityType string

const (
	EntityTypeAssignment  EntityType = "ASSIGNMENT"
	EntityTypeImage       EntityType = "IMAGE"
	EntityTypeGroundTruth EntityType = "GROUND_TRUTH"
	EntityTypeSession     EntityType = "SESSION"
	EntityTypeDescription EntityType = "DESCRIPTION"
	EntityTypeProfile     EntityType = "PROFILE"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeAssignment, EntityTypeImage, EntityTypeGroundTruth,
		EntityTypeSession, EntityTypeDescription, EntityTypeProfile:
		return true
	}
	return false
}

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete:
		return true
	}
	return false
}
