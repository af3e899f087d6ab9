package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	gomail "gopkg.in/mail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	fromEmail  string
	dialer     sender
	retryDelay time.Duration
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail from address is required")
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}

	return &SMTPMailer{
		fromEmail:  cfg.From,
		dialer:     d,
		retryDelay: time.Second,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, templateFile, username, email string, data any) error {
	subject, body, err := render(templateFile, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetAddressHeader("To", email, username)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = m.attempt(ctx, msg); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if i < maxRetries-1 {
			// linear backoff
			t := time.NewTimer(m.retryDelay * time.Duration(i+1))
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("send email: %w", ctx.Err())
			case <-t.C:
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

// attempt runs one delivery. The SMTP client has no context support, so a
// done ctx abandons the attempt and leaves it to finish on the dialer timeout.
func (m *SMTPMailer) attempt(ctx context.Context, msg *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func render(templateFile string, data any) (string, string, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return "", "", err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return "", "", err
	}

	return subject.String(), body.String(), nil
}
