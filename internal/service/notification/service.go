package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/physiome/admin-api/internal/email"
	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/pkg/logger"
	"github.com/physiome/admin-api/pkg/messaging"
	"github.com/physiome/admin-api/pkg/metrics"
)

const (
	connectionVerified = "Email connection verified"
	connectionFailed   = "Email connection failed"
)

// ConnectionResult is the outcome of a transport check.
type ConnectionResult struct {
	OK      bool
	Message string
	Error   string
}

type Config struct {
	// From is the sender of every email and the admin inbox.
	From        string
	Environment string
}

// Service renders notification events and hands them to the transport,
// one recipient at a time.
type Service struct {
	cfg       Config
	transport email.Transport
	renderer  *Renderer
	metrics   *metrics.Metrics
	publisher messaging.Publisher
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithMetrics records per-recipient outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher publishes every delivery report on
// messaging.ChannelDeliveryReports.
func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now for test emails.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, transport email.Transport, renderer *Renderer, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		transport: transport,
		renderer:  renderer,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recipients returns the addressees of event in send order.
func (s *Service) Recipients(event model.NotificationEvent) []Recipient {
	switch event.Kind {
	case model.EventContact:
		return []Recipient{
			{Role: model.RecipientAdmin, Address: s.cfg.From},
			{Role: model.RecipientSubmitter, Address: event.Contact.Email},
		}
	case model.EventBooking:
		return []Recipient{
			{Role: model.RecipientPatient, Address: event.Patient.Email},
			{Role: model.RecipientTherapist, Address: event.Therapist.Email},
		}
	case model.EventStatusUpdate:
		return []Recipient{{Role: model.RecipientPatient, Address: event.Patient.Email}}
	case model.EventTest:
		to := event.Test.To
		if to == "" {
			to = s.cfg.From
		}
		return []Recipient{{Role: model.RecipientTester, Address: to}}
	}
	return nil
}

// Dispatch sends event to each of its recipients in order. A failed send
// does not stop the remaining ones; the report is always returned and the
// error joins every per-recipient failure.
func (s *Service) Dispatch(ctx context.Context, event model.NotificationEvent) (*model.DeliveryReport, error) {
	recipients := s.Recipients(event)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("unsupported notification kind %q", event.Kind)
	}

	report := &model.DeliveryReport{
		Kind:         event.Kind,
		OK:           true,
		Recipients:   make([]string, 0, len(recipients)),
		PerRecipient: make([]model.RecipientResult, 0, len(recipients)),
	}

	var errs []error
	for _, r := range recipients {
		err := s.deliver(ctx, event, r)

		result := model.RecipientResult{Address: r.Address, Role: r.Role, OK: err == nil}
		if err != nil {
			result.Error = err.Error()
			report.OK = false
			errs = append(errs, fmt.Errorf("%s <%s>: %w", r.Role, r.Address, err))
			s.log.Error(err, "Failed to send notification",
				"kind", event.Kind, "recipient", r.Role, "address", r.Address)
		} else {
			s.log.Info("Notification sent", "kind", event.Kind, "recipient", r.Role, "address", r.Address)
		}
		report.Recipients = append(report.Recipients, r.Address)
		report.PerRecipient = append(report.PerRecipient, result)
	}

	if s.metrics != nil {
		s.metrics.DispatchTotal.WithLabelValues(string(event.Kind), metrics.Status(report.OK)).Inc()
	}
	s.publish(ctx, report)

	if len(errs) > 0 {
		return report, fmt.Errorf("failed to send %s notification: %w", event.Kind, errors.Join(errs...))
	}
	return report, nil
}

func (s *Service) deliver(ctx context.Context, event model.NotificationEvent, r Recipient) error {
	start := time.Now()
	err := s.renderAndSend(ctx, event, r)
	if s.metrics != nil {
		s.metrics.EmailSendLatency.WithLabelValues(string(event.Kind)).Observe(time.Since(start).Seconds())
		s.metrics.EmailsSent.WithLabelValues(string(event.Kind), string(r.Role), metrics.Status(err == nil)).Inc()
	}
	return err
}

func (s *Service) renderAndSend(ctx context.Context, event model.NotificationEvent, r Recipient) error {
	rendered, err := s.renderer.Render(event, r)
	if err != nil {
		return err
	}
	return s.transport.Send(ctx, email.Message{
		From:     s.cfg.From,
		To:       r.Address,
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTMLBody,
	})
}

func (s *Service) publish(ctx context.Context, report *model.DeliveryReport) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, messaging.ChannelDeliveryReports, report); err != nil {
		s.log.Warn("Failed to publish delivery report", "kind", report.Kind, "error", err.Error())
	}
}

// NotifyContact emails a contact form submission to the clinic and an
// acknowledgement to the submitter.
func (s *Service) NotifyContact(ctx context.Context, contact model.ContactSubmission) (*model.DeliveryReport, error) {
	return s.Dispatch(ctx, model.NotificationEvent{Kind: model.EventContact, Contact: contact})
}

// NotifyBooking tells the patient and the therapist about a new booking.
func (s *Service) NotifyBooking(ctx context.Context, appt *model.Appointment, patient, therapist *model.User) (*model.DeliveryReport, error) {
	return s.Dispatch(ctx, model.NotificationEvent{
		Kind:        model.EventBooking,
		Appointment: appt.Snapshot(),
		Patient:     patient.Participant(),
		Therapist:   therapist.Participant(),
	})
}

// NotifyStatusUpdate tells the patient that appt moved from previous to its
// current status.
func (s *Service) NotifyStatusUpdate(ctx context.Context, appt *model.Appointment, patient, therapist *model.User, previous model.AppointmentStatus) (*model.DeliveryReport, error) {
	return s.Dispatch(ctx, model.NotificationEvent{
		Kind:           model.EventStatusUpdate,
		Appointment:    appt.Snapshot(),
		Patient:        patient.Participant(),
		Therapist:      therapist.Participant(),
		PreviousStatus: previous,
	})
}

// VerifyConnection checks that the mail server accepts our credentials.
func (s *Service) VerifyConnection(ctx context.Context) ConnectionResult {
	if err := s.transport.Verify(ctx); err != nil {
		s.log.Error(err, connectionFailed)
		return ConnectionResult{OK: false, Message: connectionFailed, Error: err.Error()}
	}
	s.log.Info(connectionVerified)
	return ConnectionResult{OK: true, Message: connectionVerified}
}

// SendTest sends the diagnostic email to to, or to the clinic mailbox when
// to is empty.
func (s *Service) SendTest(ctx context.Context, to string) (*model.DeliveryReport, error) {
	return s.Dispatch(ctx, model.NotificationEvent{
		Kind: model.EventTest,
		Test: model.TestInfo{
			To:          to,
			Timestamp:   s.now(),
			Environment: s.Environment(),
		},
	})
}

// Environment returns the deployment tag shown in diagnostics.
func (s *Service) Environment() string {
	if s.cfg.Environment == "" {
		return "development"
	}
	return s.cfg.Environment
}
