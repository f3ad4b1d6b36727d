package transport

import (
	"context"

	"github.com/rs/zerolog"
)

// ConsoleSender logs messages instead of sending them. Used in development
// when no provider credentials are configured.
type ConsoleSender struct {
	log zerolog.Logger
}

func NewConsole(log zerolog.Logger) *ConsoleSender {
	return &ConsoleSender{log: log.With().Str("transport", "console").Logger()}
}

func (c *ConsoleSender) Send(ctx context.Context, destination, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.log.Info().Str("to", destination).Str("text", text).Msg("[DEV MODE] SMS")
	return nil
}
