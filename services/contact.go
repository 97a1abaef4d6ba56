package services

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

type mailer interface {
	Send(ctx context.Context, email Email) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, body string) error
}

// ContactService turns a contact form submission into an e-mail to the site owner,
// with an optional SMS alert on the side.
type ContactService struct {
	mailer    mailer
	sms       notifier
	recipient string
	markdown  goldmark.Markdown
	logger    zerolog.Logger
}

// NewContactService accepts a nil sms notifier.
func NewContactService(m mailer, sms notifier, recipient string) *ContactService {
	return &ContactService{
		mailer:    m,
		sms:       sms,
		recipient: recipient,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
		),
		logger: log.With().Str("service", "contact").Logger(),
	}
}

// Submit mails the message with reply-to set to the sender. The SMS alert never fails the request.
func (s *ContactService) Submit(ctx context.Context, in validation.ContactInput) error {
	if s.mailer == nil || s.recipient == "" {
		return errs.NewServiceUnavailableError("email", nil)
	}

	body, err := s.renderBody(in)
	if err != nil {
		return errs.NewInternalErrorWithCause("failed to render contact message", err)
	}

	id, err := s.mailer.Send(ctx, Email{
		To:      []string{s.recipient},
		Subject: fmt.Sprintf("New message from %s via portfolio", in.Name),
		HTML:    body,
		Text:    fmt.Sprintf("From: %s <%s>\n\n%s", in.Name, in.Email, in.Message),
		ReplyTo: in.Email,
	})
	if err != nil {
		return errs.NewServiceUnavailableError("email", err)
	}
	s.logger.Info().Str("emailId", id).Msg("contact message delivered")

	if s.sms != nil {
		alert := fmt.Sprintf("Portfolio contact from %s <%s>: %s", in.Name, in.Email, in.Message)
		if err := s.sms.Notify(ctx, alert); err != nil {
			s.logger.Warn().Err(err).Msg("contact SMS alert failed")
		}
	}
	return nil
}

// renderBody escapes name and email, and renders the message as Markdown with raw HTML omitted.
func (s *ContactService) renderBody(in validation.ContactInput) (string, error) {
	var message bytes.Buffer
	if err := s.markdown.Convert([]byte(in.Message), &message); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"<h2>New contact form submission</h2>"+
			"<p><strong>Name:</strong> %s</p>"+
			"<p><strong>Email:</strong> %s</p>"+
			"<hr/>%s",
		html.EscapeString(in.Name),
		html.EscapeString(in.Email),
		message.String(),
	), nil
}
