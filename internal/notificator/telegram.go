// Package notificator pushes operator-facing events to a Telegram chat.
// Everything is best effort: a failed notification is logged and dropped,
// it never fails the request that triggered it.
package notificator

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/pkg/logger"
)

type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot
	chatID string
}

// NewTelegramNotificator connects the operator notification bot. An empty
// token or chat ID disables notifications; the returned notificator then
// swallows every event.
func NewTelegramNotificator(log *logger.Logger, token, chatID string) (*TelegramNotificator, error) {
	n := &TelegramNotificator{logger: log, chatID: chatID}
	if token == "" || chatID == "" {
		log.Info("Telegram notifications disabled")
		return n, nil
	}

	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	n.bot = b
	return n, nil
}

// RegistrationChanged reports a new or edited address to the operator chat.
func (n *TelegramNotificator) RegistrationChanged(name, domain string, backend models.BackendKind, created bool) {
	verb := "updated"
	if created {
		verb = "registered"
	}
	n.send(fmt.Sprintf("Address %s@%s %s (backend: %s)", name, domain, verb, backend))
}

func (n *TelegramNotificator) send(message string) {
	if n.bot == nil {
		return
	}
	_, err := n.bot.SendMessage(context.Background(), &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   message,
	})
	if err != nil {
		n.logger.Error("Failed to send notification: ", err)
	}
}
