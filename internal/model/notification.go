package model

import (
	"time"
)

// EventKind selects the recipients and templates of a notification.
type EventKind string

const (
	EventContact      EventKind = "contact"
	EventBooking      EventKind = "booking"
	EventStatusUpdate EventKind = "statusUpdate"
	EventTest         EventKind = "test"
)

// RecipientRole says who a rendered message is addressed to.
type RecipientRole string

const (
	RecipientAdmin     RecipientRole = "admin"
	RecipientSubmitter RecipientRole = "submitter"
	RecipientPatient   RecipientRole = "patient"
	RecipientTherapist RecipientRole = "therapist"
	RecipientTester    RecipientRole = "tester"
)

// Participant is a value copy of a user's contact details.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// AppointmentSnapshot is a value copy of an appointment taken when the
// event is built.
type AppointmentSnapshot struct {
	ID        string            `json:"id"`
	Date      time.Time         `json:"date"`
	Time      string            `json:"time"`
	VisitType VisitType         `json:"visitType"`
	Type      string            `json:"type"`
	Notes     string            `json:"notes,omitempty"`
	Status    AppointmentStatus `json:"status"`
}

// ContactSubmission is a message sent through the public contact form.
type ContactSubmission struct {
	FirstName string `json:"firstName" binding:"required,max=100" validate:"required"`
	LastName  string `json:"lastName" binding:"required,max=100" validate:"required"`
	Email     string `json:"email" binding:"required,email" validate:"required,email"`
	Phone     string `json:"phone" binding:"max=40"`
	Subject   string `json:"subject" binding:"required,max=200" validate:"required"`
	Message   string `json:"message" binding:"required,max=5000" validate:"required"`
}

// TestInfo carries the per-send values of a diagnostic email so that
// rendering stays deterministic.
type TestInfo struct {
	To          string    `json:"to"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

// NotificationEvent is an immutable description of something that needs
// emailing. Only the fields relevant to Kind are set.
type NotificationEvent struct {
	Kind           EventKind           `json:"kind"`
	Appointment    AppointmentSnapshot `json:"appointment"`
	Patient        Participant         `json:"patient"`
	Therapist      Participant         `json:"therapist"`
	PreviousStatus AppointmentStatus   `json:"previousStatus,omitempty"`
	Contact        ContactSubmission   `json:"contact"`
	Test           TestInfo            `json:"test"`
}

// RecipientResult is the outcome of one send.
type RecipientResult struct {
	Address string        `json:"address"`
	Role    RecipientRole `json:"role"`
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
}

// DeliveryReport summarizes a dispatch. OK only when every recipient
// succeeded.
type DeliveryReport struct {
	Kind         EventKind         `json:"kind"`
	OK           bool              `json:"ok"`
	Recipients   []string          `json:"recipients"`
	PerRecipient []RecipientResult `json:"perRecipient"`
}
