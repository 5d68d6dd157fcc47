package models

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentDeleted   AppointmentStatus = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentCompleted, AppointmentDeleted:
		return true
	}
	return false
}

// CanTransition reports whether an appointment may move from s to next.
// Deleted is terminal; anything else may be deleted or toggled between
// pending and completed.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	switch {
	case !s.Valid() || !next.Valid():
		return false
	case s == AppointmentDeleted:
		return false
	case next == AppointmentDeleted:
		return true
	case s == AppointmentPending:
		return next == AppointmentCompleted
	case s == AppointmentCompleted:
		return next == AppointmentPending
	}
	return false
}

type Appointment struct {
	ID          string
	AccountID   string
	Title       string
	Description string
	ScheduledAt time.Time
	Status      AppointmentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
