package telegram

import (
	"PropDesk/internal/core/ports"
	"context"
	"errors"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// maxMessageLen is Telegram's limit for a text message, in characters.
const maxMessageLen = 4096

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// adminChannel implements ports.AdminNotifier on a Telegram chat.
type adminChannel struct {
	api    Sender
	chatID int64
	log    zerolog.Logger
}

var _ ports.AdminNotifier = (*adminChannel)(nil)

// NewAdminChannel creates a notifier that posts to the admin chat.
func NewAdminChannel(api Sender, chatID int64, baseLogger *zerolog.Logger) ports.AdminNotifier {
	log := baseLogger.With().Str("component", "tg_admin_channel").Int64("chat_id", chatID).Logger()
	return &adminChannel{api: api, chatID: chatID, log: log}
}

// NewBotAPI connects to Telegram with the given bot token.
func NewBotAPI(token string, baseLogger *zerolog.Logger) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	baseLogger.Info().Str("bot", api.Self.UserName).Msg("Telegram bot authorized")
	return api, nil
}

// NotifyAdmins sends text as a plain message. Over-long text is cut.
func (c *adminChannel) NotifyAdmins(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(c.chatID, truncate(text, maxMessageLen))
	msg.DisableWebPagePreview = true

	if _, err := c.api.Send(msg); err != nil {
		c.log.Error().Err(err).Msg("Failed to send admin message")
		return err
	}
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
