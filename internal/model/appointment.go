package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next:
// pending -> confirmed -> completed, and any non-completed state -> cancelled.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch next {
	case AppointmentStatusConfirmed:
		return s == AppointmentStatusPending
	case AppointmentStatusCompleted:
		return s == AppointmentStatusConfirmed
	case AppointmentStatusCancelled:
		return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
	}
	return false
}

type VisitType string

const (
	VisitTypeHome   VisitType = "home"
	VisitTypeClinic VisitType = "clinic"
)

// DefaultAppointmentType is used when a booking does not name one.
const DefaultAppointmentType = "Initial Consultation"

// DateLayout is the wire format of an appointment's calendar day.
const DateLayout = "2006-01-02"

type Appointment struct {
	Base
	PatientID   string            `json:"patientId" db:"patient_id"`
	TherapistID string            `json:"therapistId" db:"therapist_id"`
	Date        time.Time         `json:"date" db:"appointment_date"`
	Time        string            `json:"time" db:"time_slot"`
	VisitType   VisitType         `json:"visitType" db:"visit_type"`
	Type        string            `json:"type" db:"type"`
	Notes       string            `json:"notes,omitempty" db:"notes"`
	Status      AppointmentStatus `json:"status" db:"status"`
}

// Snapshot copies the fields a notification needs.
func (a *Appointment) Snapshot() AppointmentSnapshot {
	return AppointmentSnapshot{
		ID:        a.ID,
		Date:      a.Date,
		Time:      a.Time,
		VisitType: a.VisitType,
		Type:      a.Type,
		Notes:     a.Notes,
		Status:    a.Status,
	}
}

type BookAppointmentRequest struct {
	TherapistID string    `json:"therapistId" binding:"required"`
	Date        string    `json:"date" binding:"required,datetime=2006-01-02"`
	Time        string    `json:"time" binding:"required"`
	VisitType   VisitType `json:"visitType" binding:"required,oneof=home clinic"`
	Type        string    `json:"type"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}
