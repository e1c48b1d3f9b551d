// Package notification provides implementations for delivering consensus
// decisions and failures to humans.
package notification

import (
	"fmt"
	"time"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/logger"
	tb "gopkg.in/tucnak/telebot.v2"
)

// TelegramSettings configures the telegram notifier
type TelegramSettings struct {
	Token string
	Users []int // authorized chat IDs
}

// telegram implements the core.Notifier interface
type telegram struct {
	settings TelegramSettings
	client   *tb.Bot
	log      logger.Logger
}

// NewTelegram creates a Telegram-backed notifier
func NewTelegram(settings TelegramSettings, log logger.Logger) (core.Notifier, error) {
	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Token,
		Poller:    &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &telegram{
		settings: settings,
		client:   client,
		log:      log,
	}, nil
}

// Notify implements core.Notifier
func (t *telegram) Notify(message string) {
	for _, user := range t.settings.Users {
		if _, err := t.client.Send(&tb.User{ID: int64(user)}, message); err != nil {
			t.log.WithError(err).WithField("user", user).Error("telegram send failed")
		}
	}
}

// OnError implements core.Notifier
func (t *telegram) OnError(err error) {
	t.Notify(fmt.Sprintf("🚨 *ERROR*\n```%s```", err))
}
