package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type chatSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers to a Telegram chat. The destination is the chat ID.
type TelegramSender struct {
	api chatSender
	log zerolog.Logger
}

func NewTelegram(token string, timeout time.Duration, log zerolog.Logger) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram requires TELEGRAM_TOKEN", ErrNotConfigured)
	}
	client := &http.Client{Timeout: timeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram API: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram transport authorized")
	return newTelegram(api, log), nil
}

func newTelegram(api chatSender, log zerolog.Logger) *TelegramSender {
	return &TelegramSender{api: api, log: log.With().Str("transport", "telegram").Logger()}
}

func (t *TelegramSender) Send(ctx context.Context, destination, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := parseChatID(destination)
	if err != nil {
		return err
	}

	body, entities := telegramText(telegramHeader + text)
	msg := tgbotapi.NewMessage(chatID, body)
	msg.Entities = entities

	sent, err := t.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send telegram message to %d: %w", chatID, err)
	}
	t.log.Debug().Int64("chat_id", chatID).Int("msg_id", sent.MessageID).Msg("message sent")
	return nil
}

func parseChatID(destination string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(destination), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", destination, err)
	}
	return id, nil
}
