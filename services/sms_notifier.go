package services

import (
	"context"
	"fmt"

	"github.com/Amar2502/portfolio-backend/config"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// maxSMSLength keeps alerts inside a couple of segments.
const maxSMSLength = 300

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSNotifier texts the site owner through Twilio.
type SMSNotifier struct {
	api  messageCreator
	from string
	to   string
}

// NewSMSNotifier returns nil when TWILIO_* or CONTACT_SMS_TO are not all set.
func NewSMSNotifier(cfg map[string]string) *SMSNotifier {
	sid := config.GetString(cfg, "TWILIO_ACCOUNT_SID", "")
	token := config.GetString(cfg, "TWILIO_AUTH_TOKEN", "")
	from := config.GetString(cfg, "TWILIO_FROM_NUMBER", "")
	to := config.GetString(cfg, "CONTACT_SMS_TO", "")
	if sid == "" || token == "" || from == "" || to == "" {
		return nil
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})
	return &SMSNotifier{api: client.Api, from: from, to: to}
}

// Notify sends body, cut to maxSMSLength runes. A nil notifier does nothing.
func (n *SMSNotifier) Notify(ctx context.Context, body string) error {
	if n == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runes := []rune(body)
	if len(runes) > maxSMSLength {
		body = string(runes[:maxSMSLength-3]) + "..."
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(body)

	msg, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS via Twilio: %w", err)
	}

	if msg != nil && msg.Sid != nil {
		log.Info().Str("messageSid", *msg.Sid).Msg("Sent contact SMS alert")
	}
	return nil
}
