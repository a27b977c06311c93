package notify

import (
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Telegram sends notifications to a single chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects to the Bot API at endpoint, given in
// tgbotapi.APIEndpoint format.
func NewTelegram(token string, chatID int64, endpoint string, client *http.Client) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID not set")
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Debug().Str("username", api.Self.UserName).Msg("🤖 Telegram notifier initialized")

	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Deliver sends text and logs instead of failing. Notifications never abort
// the operation they report on.
func Deliver(n Notifier, text string) {
	if n == nil {
		return
	}
	if err := n.Send(text); err != nil {
		log.Error().Err(err).Msg("Failed to send notification")
	}
}
