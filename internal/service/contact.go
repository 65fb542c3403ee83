// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mileusna/useragent"
	"github.com/wneessen/go-mail"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/ofolio/internal/geoip"
)

// ErrMailDelivery is returned when the contact message could not be sent.
var ErrMailDelivery = errors.New("failed to deliver message")

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactMeta describes the sender's request.
type ContactMeta struct {
	IP        string
	UserAgent string
}

// Mail is an outgoing HTML email.
type Mail struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer creates an SMTP mailer. Authentication is enabled when a
// username is configured.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// Send delivers m.
func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("setting from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("setting to: %w", err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return fmt.Errorf("setting reply-to: %w", err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// LogMailer logs mail instead of sending it. Used when SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs m.
func (l *LogMailer) Send(ctx context.Context, m Mail) error {
	l.logger.InfoContext(ctx, "mail not sent, smtp disabled",
		"to", m.To, "reply_to", m.ReplyTo, "subject", m.Subject, "bytes", len(m.HTML))
	return nil
}

var contactTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>New contact form submission</h2>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
  <p><strong>Subject:</strong> {{.Subject}}</p>
  <hr>
  <div>{{.Body}}</div>
  <hr>
  <p style="font-size: 12px; color: #777;">
    Sent {{.SentAt}} from {{.IP}} ({{.Country}}) using {{.Browser}} on {{.OS}}
  </p>
</body>
</html>
`))

type contactView struct {
	Name    string
	Email   string
	Subject string
	Body    template.HTML
	SentAt  string
	IP      string
	Country string
	Browser string
	OS      string
}

// ContactService validates contact messages and mails them to the site owner.
type ContactService struct {
	clock
	mailer   Mailer
	to       string
	geo      *geoip.Lookup
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
	validate *validator.Validate
	logger   *slog.Logger
}

// NewContactService creates a ContactService. geo may be nil.
func NewContactService(mailer Mailer, to string, geo *geoip.Lookup, logger *slog.Logger) *ContactService {
	return &ContactService{
		mailer:   mailer,
		to:       to,
		geo:      geo,
		markdown: goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		policy:   bluemonday.UGCPolicy(),
		validate: newValidator(),
		logger:   logger,
	}
}

// Send validates msg and delivers it with the sender metadata in the footer.
func (s *ContactService) Send(ctx context.Context, msg ContactMessage, meta ContactMeta) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Message = strings.TrimSpace(msg.Message)
	if err := validateStruct(s.validate, msg); err != nil {
		return err
	}

	m, err := s.Compose(msg, meta)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		s.logger.ErrorContext(ctx, "contact mail failed", "error", err)
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	s.logger.InfoContext(ctx, "contact message sent", "reply_to", msg.Email)
	return nil
}

// Compose renders msg into the outgoing mail.
func (s *ContactService) Compose(msg ContactMessage, meta ContactMeta) (Mail, error) {
	body, err := s.renderMessage(msg.Message)
	if err != nil {
		return Mail{}, err
	}

	subject := msg.Subject
	if subject == "" {
		subject = "No Subject"
	}

	view := contactView{
		Name:    msg.Name,
		Email:   msg.Email,
		Subject: subject,
		Body:    body,
		SentAt:  s.timestamp().Format(time.RFC1123),
		IP:      meta.IP,
		Country: "Unknown",
		Browser: "Unknown",
		OS:      "Unknown",
	}
	if s.geo != nil && meta.IP != "" {
		view.Country = s.geo.Country(meta.IP).Name
	}
	if meta.UserAgent != "" {
		ua := useragent.Parse(meta.UserAgent)
		if ua.Name != "" {
			view.Browser = strings.TrimSpace(ua.Name + " " + ua.Version)
		}
		if ua.OS != "" {
			view.OS = ua.OS
		}
	}

	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, view); err != nil {
		return Mail{}, fmt.Errorf("rendering contact mail: %w", err)
	}
	return Mail{
		To:      s.to,
		ReplyTo: msg.Email,
		Subject: "Contact Form: " + subject,
		HTML:    buf.String(),
	}, nil
}

// renderMessage converts markdown to HTML and sanitizes the result.
func (s *ContactService) renderMessage(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(s.policy.SanitizeBytes(buf.Bytes())), nil
}
