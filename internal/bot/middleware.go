package bot

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/config"
	"solo-rising/internal/handler"
)

// PrivateChatMiddleware drops updates from group chats. Ledger commands act
// on the account linked to the chat, which only makes sense one to one.
func PrivateChatMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}
			if chat.Type != tele.ChatPrivate {
				log.Debug().
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type)).
					Msg("Ignoring ledger command outside a private chat")
				return nil
			}
			return next(c)
		}
	}
}

// AdminMiddleware lets a command through only when the chat is linked to a
// ledger user listed in admin.ids.
func AdminMiddleware(cfg *config.Config, profiles handler.Profiles) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}

			user, err := profiles.GetByTelegramChat(context.Background(), chat.ID)
			if err != nil || !cfg.IsAdmin(user.ID) {
				log.Warn().
					Int64("chat_id", chat.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return c.Reply("❌ Permission denied: admins only")
			}
			return next(c)
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming messages.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("telegram_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received message")

			return next(c)
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					err = c.Reply("❌ Internal error, please try again later")
				}
			}()
			return next(c)
		}
	}
}
