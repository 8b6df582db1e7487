package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/physiome/admin-api/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// DisplayDateLayout is how appointment days are written in emails.
const DisplayDateLayout = "Monday, January 2, 2006"

const (
	subjectSubmitter = "Thank you for contacting PhysioMe"
	subjectBooking   = "Appointment Booking Confirmation - PhysioMe"
	subjectRequest   = "New Appointment Booking - Action Required"
	subjectTest      = "🧪 PhysioMe Email Test"
)

// Recipient is one addressee of a notification event.
type Recipient struct {
	Role    model.RecipientRole
	Address string
}

// Rendered is a ready-to-send email.
type Rendered struct {
	Subject  string
	HTMLBody string
}

type RendererConfig struct {
	// From is the clinic mailbox, used as the admin inbox and the support
	// address shown to patients.
	From        string
	FrontendURL string
}

// Renderer turns notification events into email content. It does no I/O
// and is safe for concurrent use.
type Renderer struct {
	cfg  RendererConfig
	tmpl *template.Template
}

func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:5173"
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"nl2br":   nl2br,
		"row":     func(label, value string) tableRow { return tableRow{Label: label, Value: value} },
		"notes":   func(title, notes string) notesBlock { return notesBlock{NotesTitle: title, Notes: notes} },
		"support": func(prompt, address string) supportBlock { return supportBlock{Prompt: prompt, Address: address} },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Renderer{cfg: cfg, tmpl: tmpl}, nil
}

type tableRow struct {
	Label string
	Value string
}

type notesBlock struct {
	NotesTitle string
	Notes      string
}

type supportBlock struct {
	Prompt  string
	Address string
}

type contactData struct {
	Contact        model.ContactSubmission
	SupportAddress string
}

type appointmentData struct {
	Patient        model.Participant
	Therapist      model.Participant
	Date           string
	Time           string
	VisitLabel     string
	Type           string
	Notes          string
	Status         StatusInfo
	Confirmed      bool
	Cancelled      bool
	SupportAddress string
	DashboardURL   string
}

type testData struct {
	Timestamp   string
	Environment string
}

// Render produces the subject and HTML body of event for r.
func (r *Renderer) Render(event model.NotificationEvent, to Recipient) (*Rendered, error) {
	var (
		name    string
		subject string
		data    interface{}
	)

	switch {
	case event.Kind == model.EventContact && to.Role == model.RecipientAdmin:
		name, subject = "contact_admin", "Contact Form: "+event.Contact.Subject
		data = contactData{Contact: event.Contact, SupportAddress: r.cfg.From}
	case event.Kind == model.EventContact && to.Role == model.RecipientSubmitter:
		name, subject = "contact_submitter", subjectSubmitter
		data = contactData{Contact: event.Contact, SupportAddress: r.cfg.From}
	case event.Kind == model.EventBooking && to.Role == model.RecipientPatient:
		name, subject = "booking_patient", subjectBooking
		data = r.appointmentData(event)
	case event.Kind == model.EventBooking && to.Role == model.RecipientTherapist:
		name, subject = "booking_therapist", subjectRequest
		data = r.appointmentData(event)
	case event.Kind == model.EventStatusUpdate && to.Role == model.RecipientPatient:
		d := r.appointmentData(event)
		name, subject = "status_update", fmt.Sprintf("Appointment %s - PhysioMe", d.Status.Label)
		data = d
	case event.Kind == model.EventTest:
		name, subject = "test", subjectTest
		data = testData{
			Timestamp:   event.Test.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
			Environment: event.Test.Environment,
		}
	default:
		return nil, fmt.Errorf("no template for %s notification to %s", event.Kind, to.Role)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return &Rendered{Subject: subject, HTMLBody: buf.String()}, nil
}

func (r *Renderer) appointmentData(event model.NotificationEvent) appointmentData {
	appt := event.Appointment
	kind := appt.Type
	if kind == "" {
		kind = model.DefaultAppointmentType
	}
	return appointmentData{
		Patient:        event.Patient,
		Therapist:      event.Therapist,
		Date:           formatDate(appt.Date),
		Time:           appt.Time,
		VisitLabel:     visitLabel(appt.VisitType),
		Type:           kind,
		Notes:          appt.Notes,
		Status:         Classify(appt.Status),
		Confirmed:      appt.Status == model.AppointmentStatusConfirmed,
		Cancelled:      appt.Status == model.AppointmentStatusCancelled,
		SupportAddress: r.cfg.From,
		DashboardURL:   r.cfg.FrontendURL + "/therapist/appointments",
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

func visitLabel(v model.VisitType) string {
	if v == model.VisitTypeHome {
		return "Home Visit"
	}
	return "Clinic Visit"
}

// nl2br escapes s and turns its line breaks into <br> tags.
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
