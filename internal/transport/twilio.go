package transport

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends SMS through the Twilio Messages API
type TwilioSender struct {
	api  messageCreator
	from string
	log  zerolog.Logger
}

func NewTwilio(accountSID, authToken, from string, log zerolog.Logger) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("%w: twilio requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER", ErrNotConfigured)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilio(client.Api, from, log), nil
}

func newTwilio(api messageCreator, from string, log zerolog.Logger) *TwilioSender {
	return &TwilioSender{
		api:  api,
		from: from,
		log:  log.With().Str("transport", "twilio").Logger(),
	}
}

// Send creates a message. The Twilio client does not take a context, so ctx
// is only checked before the request is made.
func (t *TwilioSender) Send(ctx context.Context, destination, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(destination)
	params.SetFrom(t.from)
	params.SetBody(text)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", destination, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	t.log.Debug().Str("to", destination).Str("sid", sid).Msg("SMS accepted")
	return nil
}
