// Package transport delivers reminder text to a destination.
//
// Senders may be called repeatedly for the same logical message; none of them
// deduplicate.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrNotConfigured = errors.New("transport not configured")

// Sender sends text to a destination. A nil error means the provider accepted
// the message for delivery.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, destination, text string) error

func (f SenderFunc) Send(ctx context.Context, destination, text string) error {
	return f(ctx, destination, text)
}

type Options struct {
	Kind              string // auto, twilio, telegram, console
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	TelegramToken     string
	Timeout           time.Duration
}

// New builds the sender selected by opts.Kind. "auto" picks Twilio when its
// credentials are present and falls back to the console sender otherwise.
func New(opts Options, log zerolog.Logger) (Sender, error) {
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if kind == "" || kind == "auto" {
		kind = "console"
		if opts.TwilioAccountSID != "" && opts.TwilioAuthToken != "" {
			kind = "twilio"
		}
	}

	switch kind {
	case "twilio":
		return NewTwilio(opts.TwilioAccountSID, opts.TwilioAuthToken, opts.TwilioPhoneNumber, log)
	case "telegram":
		return NewTelegram(opts.TelegramToken, opts.Timeout, log)
	case "console":
		log.Warn().Msg("SMS credentials not configured, messages will only be logged")
		return NewConsole(log), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Kind)
	}
}
