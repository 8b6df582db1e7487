package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiome/admin-api/internal/email"
	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/pkg/metrics"
)

type fakeTransport struct {
	mu        sync.Mutex
	sent      []email.Message
	failFor   map[string]error
	verifyErr error
}

func (f *fakeTransport) Verify(context.Context) error { return f.verifyErr }

func (f *fakeTransport) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.failFor[msg.To]
}

type fakePublisher struct {
	channel string
	message interface{}
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) error {
	f.channel, f.message = channel, message
	return f.err
}

func newTestService(t *testing.T, transport *fakeTransport, opts ...Option) *Service {
	t.Helper()
	renderer := newTestRenderer(t)
	return NewService(Config{From: "support@physiome.example", Environment: "test"}, transport, renderer, opts...)
}

func TestDispatch_BookingSendsPatientThenTherapist(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport)

	report, err := svc.Dispatch(context.Background(), bookingEvent())
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Equal(t, model.EventBooking, report.Kind)
	assert.Equal(t, []string{"asha@example.com", "ravi@example.com"}, report.Recipients)

	require.Len(t, transport.sent, 2)
	assert.Equal(t, "asha@example.com", transport.sent[0].To)
	assert.Equal(t, "Appointment Booking Confirmation - PhysioMe", transport.sent[0].Subject)
	assert.Equal(t, "ravi@example.com", transport.sent[1].To)
	assert.Equal(t, "New Appointment Booking - Action Required", transport.sent[1].Subject)
	for _, m := range transport.sent {
		assert.Equal(t, "support@physiome.example", m.From)
	}
}

func TestDispatch_PartialFailureKeepsSending(t *testing.T) {
	transport := &fakeTransport{failFor: map[string]error{
		"asha@example.com": errors.New("mailbox unavailable"),
	}}
	svc := newTestService(t, transport)

	report, err := svc.Dispatch(context.Background(), bookingEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send booking notification")
	assert.Contains(t, err.Error(), "mailbox unavailable")

	require.NotNil(t, report)
	assert.False(t, report.OK)
	require.Len(t, transport.sent, 2)
	assert.Equal(t, []model.RecipientResult{
		{Address: "asha@example.com", Role: model.RecipientPatient, OK: false, Error: "mailbox unavailable"},
		{Address: "ravi@example.com", Role: model.RecipientTherapist, OK: true},
	}, report.PerRecipient)
}

func TestDispatch_ContactGoesToAdminThenSubmitter(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport)

	report, err := svc.NotifyContact(context.Background(), model.ContactSubmission{
		FirstName: "Meera",
		LastName:  "Nair",
		Email:     "meera@example.com",
		Subject:   "Knee rehab",
		Message:   "Hello",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"support@physiome.example", "meera@example.com"}, report.Recipients)
	assert.Equal(t, "Contact Form: Knee rehab", transport.sent[0].Subject)
	assert.Equal(t, "Thank you for contacting PhysioMe", transport.sent[1].Subject)
}

func TestNotifyStatusUpdate_Cancelled(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport)

	appt := &model.Appointment{
		Base:      model.Base{ID: "appt-1"},
		Date:      time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		Time:      "10:00 AM",
		VisitType: model.VisitTypeHome,
		Status:    model.AppointmentStatusCancelled,
	}
	patient := &model.User{Base: model.Base{ID: "p1"}, Name: "Asha", Email: "asha@example.com"}
	therapist := &model.User{Base: model.Base{ID: "t1"}, Name: "Ravi", Email: "ravi@example.com"}

	report, err := svc.NotifyStatusUpdate(context.Background(), appt, patient, therapist, model.AppointmentStatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, []string{"asha@example.com"}, report.Recipients)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "Appointment Cancelled - PhysioMe", transport.sent[0].Subject)
	assert.Contains(t, transport.sent[0].HTMLBody, "#ef4444")
	assert.Contains(t, transport.sent[0].HTMLBody, "Please contact us to reschedule")
}

func TestSendTest_DefaultsToClinicMailbox(t *testing.T) {
	transport := &fakeTransport{}
	now := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
	svc := newTestService(t, transport, WithClock(func() time.Time { return now }))

	report, err := svc.SendTest(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"support@physiome.example"}, report.Recipients)
	assert.Equal(t, "🧪 PhysioMe Email Test", transport.sent[0].Subject)
	assert.Contains(t, transport.sent[0].HTMLBody, "2025-03-14T09:30:00.000Z")
	assert.Contains(t, transport.sent[0].HTMLBody, "test")
}

func TestSendTest_ExplicitRecipient(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport)

	report, err := svc.SendTest(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, report.Recipients)
}

func TestVerifyConnection(t *testing.T) {
	svc := newTestService(t, &fakeTransport{})
	assert.Equal(t, ConnectionResult{OK: true, Message: "Email connection verified"}, svc.VerifyConnection(context.Background()))

	svc = newTestService(t, &fakeTransport{verifyErr: errors.New("535 authentication failed")})
	assert.Equal(t, ConnectionResult{
		OK:      false,
		Message: "Email connection failed",
		Error:   "535 authentication failed",
	}, svc.VerifyConnection(context.Background()))
}

func TestDispatch_UnsupportedKind(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport)

	report, err := svc.Dispatch(context.Background(), model.NotificationEvent{Kind: "sms"})
	assert.Error(t, err)
	assert.Nil(t, report)
	assert.Empty(t, transport.sent)
}

func TestDispatch_PublishesReportAndRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "test")
	publisher := &fakePublisher{err: errors.New("redis down")}
	transport := &fakeTransport{failFor: map[string]error{"ravi@example.com": errors.New("rejected")}}
	svc := newTestService(t, transport, WithMetrics(m), WithPublisher(publisher))

	report, err := svc.Dispatch(context.Background(), bookingEvent())
	require.Error(t, err)

	assert.Equal(t, "notifications.delivery", publisher.channel)
	assert.Same(t, report, publisher.message)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EmailsSent.WithLabelValues("booking", "patient", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EmailsSent.WithLabelValues("booking", "therapist", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DispatchTotal.WithLabelValues("booking", "failure")))
}
