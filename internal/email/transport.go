package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/physiome/admin-api/internal/config"
	"github.com/physiome/admin-api/pkg/validator"
)

// ErrInvalidMessage wraps validation failures, which never reach the server.
var ErrInvalidMessage = errors.New("invalid message")

// Message is a single HTML email. Addresses are only checked for presence;
// deliverability is left to the mail server.
type Message struct {
	From     string `validate:"required"`
	To       string `validate:"required"`
	Subject  string `validate:"required"`
	HTMLBody string `validate:"required"`
}

// Transport submits messages to a mail server.
type Transport interface {
	// Verify opens and authenticates a connection without sending.
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg Message) error
}

// SMTPTransport is a process-wide Transport backed by gomail. Each call
// dials its own connection so concurrent sends do not share state.
type SMTPTransport struct {
	dialer    *gomail.Dialer
	validator validator.Validator
}

var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport builds a transport from the mail settings. Empty
// credentials are passed through so the server reports the failure.
func NewSMTPTransport(cfg config.MailConfig, v validator.Validator) *SMTPTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	// SSL from the first byte when secure, otherwise STARTTLS.
	d.SSL = cfg.Secure
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: true,
	}
	if v == nil {
		v = validator.New()
	}
	return &SMTPTransport{dialer: d, validator: v}
}

func (t *SMTPTransport) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	closer, err := t.dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp verify: %w", err)
	}
	return closer.Close()
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := t.validator.Validate(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	if err := t.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

const notSet = "NOT_SET"

// Masked returns the mail settings as shown by the diagnostics endpoint:
// the user is shortened to its first three characters plus domain and the
// password is never echoed.
func Masked(cfg config.MailConfig, environment string) map[string]string {
	out := map[string]string{
		"MAIL_HOST":   orNotSet(cfg.Raw["MAIL_HOST"]),
		"MAIL_PORT":   orNotSet(cfg.Raw["MAIL_PORT"]),
		"MAIL_SECURE": orNotSet(cfg.Raw["MAIL_SECURE"]),
		"MAIL_USER":   maskUser(cfg.User),
		"MAIL_PASS":   notSet,
		"MAIL_FROM":   orNotSet(cfg.From),
		"NODE_ENV":    environment,
	}
	if cfg.Pass != "" {
		out["MAIL_PASS"] = "SET (hidden)"
	}
	if environment == "" {
		out["NODE_ENV"] = "development"
	}
	return out
}

func maskUser(user string) string {
	if user == "" {
		return notSet
	}
	prefix := user
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	domain := ""
	if at := strings.Index(user, "@"); at >= 0 {
		domain = user[at+1:]
	}
	return prefix + "***@" + domain
}

func orNotSet(v string) string {
	if v == "" {
		return notSet
	}
	return v
}
