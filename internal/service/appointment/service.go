package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
	apperrors "github.com/physiome/admin-api/pkg/errors"
	"github.com/physiome/admin-api/pkg/logger"
)

// Notifier emails the people involved in an appointment change.
type Notifier interface {
	NotifyBooking(ctx context.Context, appt *model.Appointment, patient, therapist *model.User) (*model.DeliveryReport, error)
	NotifyStatusUpdate(ctx context.Context, appt *model.Appointment, patient, therapist *model.User, previous model.AppointmentStatus) (*model.DeliveryReport, error)
}

// Result is a persisted appointment and the outcome of its notification.
// Delivery is nil when no email was attempted.
type Result struct {
	Appointment *model.Appointment
	Delivery    *model.DeliveryReport
}

type Service struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	notifier     Notifier
	log          *logger.Logger
}

func NewService(appointments repository.AppointmentRepository, users repository.UserRepository, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		appointments: appointments,
		users:        users,
		notifier:     notifier,
		log:          log,
	}
}

// Book creates a pending appointment for patient with an approved
// therapist and emails both. A failed email does not undo the booking.
func (s *Service) Book(ctx context.Context, patient *model.User, req model.BookAppointmentRequest) (*Result, error) {
	if patient == nil || patient.Role != model.RolePatient {
		return nil, apperrors.Forbidden("Only patients can book appointments")
	}

	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid appointment date", err)
	}
	if req.VisitType != model.VisitTypeHome && req.VisitType != model.VisitTypeClinic {
		return nil, apperrors.BadRequest("Visit type must be home or clinic", nil)
	}

	therapist, err := s.users.Get(ctx, req.TherapistID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Therapist not found")
		}
		return nil, apperrors.Transient(err)
	}
	if therapist.Role != model.RoleTherapist {
		return nil, apperrors.NotFound("Therapist not found")
	}
	if therapist.Status != model.UserStatusApproved {
		return nil, apperrors.BadRequest("Therapist is not accepting appointments", nil)
	}

	appt := &model.Appointment{
		PatientID:   patient.ID,
		TherapistID: therapist.ID,
		Date:        date,
		Time:        strings.TrimSpace(req.Time),
		VisitType:   req.VisitType,
		Type:        strings.TrimSpace(req.Type),
		Notes:       strings.TrimSpace(req.Notes),
		Status:      model.AppointmentStatusPending,
	}
	if appt.Type == "" {
		appt.Type = model.DefaultAppointmentType
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, apperrors.Transient(err)
	}
	s.log.Info("Appointment booked", "appointment_id", appt.ID, "patient_id", patient.ID, "therapist_id", therapist.ID)

	report, err := s.notifier.NotifyBooking(ctx, appt, patient, therapist)
	if err != nil {
		s.log.Error(err, "Booking notification failed", "appointment_id", appt.ID)
	}
	return &Result{Appointment: appt, Delivery: report}, nil
}

// UpdateStatus moves an appointment along its lifecycle on behalf of actor,
// who must be an administrator or the appointment's therapist. Repeating
// the current status is a no-op and sends nothing.
func (s *Service) UpdateStatus(ctx context.Context, actor *model.User, id string, status model.AppointmentStatus) (*Result, error) {
	if !status.Valid() {
		return nil, apperrors.BadRequest("Invalid appointment status", nil)
	}

	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Appointment not found")
		}
		return nil, apperrors.Transient(err)
	}

	if !canManage(actor, appt) {
		return nil, apperrors.Forbidden("Not authorized to update this appointment")
	}

	previous := appt.Status
	if previous == status {
		return &Result{Appointment: appt}, nil
	}
	if !previous.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot change appointment status from %s to %s", previous, status))
	}

	if err := s.appointments.UpdateStatus(ctx, appt.ID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Appointment not found")
		}
		return nil, apperrors.Transient(err)
	}
	appt.Status = status
	s.log.Info("Appointment status updated", "appointment_id", appt.ID, "from", previous, "to", status)

	patient, therapist, err := s.participants(ctx, appt)
	if err != nil {
		s.log.Error(err, "Cannot notify status update", "appointment_id", appt.ID)
		return &Result{Appointment: appt}, nil
	}

	report, err := s.notifier.NotifyStatusUpdate(ctx, appt, patient, therapist, previous)
	if err != nil {
		s.log.Error(err, "Status notification failed", "appointment_id", appt.ID)
	}
	return &Result{Appointment: appt, Delivery: report}, nil
}

func canManage(actor *model.User, appt *model.Appointment) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleTherapist:
		return actor.ID == appt.TherapistID
	}
	return false
}

func (s *Service) participants(ctx context.Context, appt *model.Appointment) (*model.User, *model.User, error) {
	patient, err := s.users.Get(ctx, appt.PatientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load patient %s: %w", appt.PatientID, err)
	}
	therapist, err := s.users.Get(ctx, appt.TherapistID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load therapist %s: %w", appt.TherapistID, err)
	}
	return patient, therapist, nil
}
