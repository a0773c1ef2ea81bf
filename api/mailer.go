package api

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"

	"quickshow/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/go-mail/mail/v2"
	"github.com/sony/gobreaker"
)

//go:embed "templates"
var templateFS embed.FS

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Mailer renders email templates and sends them over SMTP. Consecutive transport failures
// open a circuit breaker, so handlers fail fast and retry later instead of piling up dials.
type Mailer struct {
	dialer  *mail.Dialer
	sender  string
	breaker *gobreaker.CircuitBreaker
}

func NewMailer(config SMTPConfig) *Mailer {
	dialer := mail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	dialer.Timeout = 5 * time.Second

	return &Mailer{
		dialer: dialer,
		sender: config.Sender,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "smtp",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (m *Mailer) Send(ctx context.Context, email entities.Email) error {
	msg, err := m.render(email)
	if err != nil {
		return entities.PermanentError{Err: err}
	}

	_, err = m.breaker.Execute(func() (interface{}, error) {
		return nil, m.dialer.DialAndSend(msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		log.FromContext(ctx).WithField("state", m.breaker.State().String()).Warn("Mail transport circuit open")
	}
	if err != nil {
		return fmt.Errorf("%w: could not send %s to %s: %w", entities.ErrUpstream, email.Template, email.To, err)
	}

	return nil
}

func (m *Mailer) render(email entities.Email) (*mail.Message, error) {
	subject, plainBody, htmlBody, err := RenderEmail(email)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", email.To)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)

	return msg, nil
}

// RenderEmail executes the "subject", "plainBody" and "htmlBody" blocks of the email template.
func RenderEmail(email entities.Email) (subject, plainBody, htmlBody string, err error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+email.Template)
	if err != nil {
		return "", "", "", fmt.Errorf("could not parse template %s: %w", email.Template, err)
	}

	subject, err = executeText(tmpl, "subject", email.Data)
	if err != nil {
		return "", "", "", err
	}
	plainBody, err = executeText(tmpl, "plainBody", email.Data)
	if err != nil {
		return "", "", "", err
	}

	htmlTmpl, err := htmltemplate.New("email").ParseFS(templateFS, "templates/"+email.Template)
	if err != nil {
		return "", "", "", fmt.Errorf("could not parse template %s: %w", email.Template, err)
	}

	html := new(bytes.Buffer)
	if err := htmlTmpl.ExecuteTemplate(html, "htmlBody", email.Data); err != nil {
		return "", "", "", fmt.Errorf("could not render htmlBody: %w", err)
	}

	return subject, plainBody, html.String(), nil
}

func executeText(tmpl *template.Template, name string, data any) (string, error) {
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("could not render %s: %w", name, err)
	}

	return buf.String(), nil
}
