package notify

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/model"
)

// Messenger is the part of *tele.Bot the Telegram sender needs.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram pushes unlock events to the user's linked Telegram chat.
type Telegram struct {
	bot Messenger
}

// NewTelegram creates a Telegram sender. A nil bot yields a nil sender.
func NewTelegram(bot Messenger) *Telegram {
	if bot == nil {
		return nil
	}
	return &Telegram{bot: bot}
}

// Name implements Sender.
func (t *Telegram) Name() string { return "telegram" }

// Send implements Sender. Users without a linked chat are skipped.
func (t *Telegram) Send(_ context.Context, user *model.User, events []Event) (bool, error) {
	if user.TelegramChatID == nil {
		return false, nil
	}
	if _, err := t.bot.Send(tele.ChatID(*user.TelegramChatID), FormatEvents(user, events)); err != nil {
		return false, fmt.Errorf("failed to send telegram message: %w", err)
	}
	return true, nil
}

// FormatEvents renders unlock events as one chat message in the user's
// persona voice.
func FormatEvents(user *model.User, events []Event) string {
	title := "Warrior"
	if user.CharacterType != nil {
		if c, ok := model.LookupCharacter(*user.CharacterType); ok {
			title = c.Title
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 %s, new reward unlocked!\n", title)
	for _, e := range events {
		sb.WriteString("\n")
		if e.Reward.Icon != "" {
			sb.WriteString(e.Reward.Icon + " ")
		}
		sb.WriteString(e.Reward.Name)
		if e.BonusPoints > 0 {
			fmt.Fprintf(&sb, " (+%d pts)", e.BonusPoints)
		}
	}
	return sb.String()
}
