// Package handler provides Telegram bot command handlers.
//
// A Telegram chat acts for the ledger user it was linked to through the
// API. Commands from an unlinked chat get instructions instead.
package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/model"
	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
	"solo-rising/internal/service"
	"solo-rising/internal/shop"
)

// Profiles resolves the ledger user behind a chat.
type Profiles interface {
	GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error)
}

// Rankings serves leaderboards.
type Rankings interface {
	GetTopUsers(ctx context.Context, country string, limit int) ([]*model.User, error)
	GetDailyEarners(ctx context.Context, limit int) ([]*model.DailyRank, error)
	GetUserDailyPoints(ctx context.Context, userID int64) (int64, error)
}

// Store sells items for coins.
type Store interface {
	Purchase(ctx context.Context, userID int64, itemType shop.ItemType) (*service.Purchase, error)
	Inventory(ctx context.Context, userID int64) ([]model.InventoryItem, error)
}

// Sweeper runs the streak sweep.
type Sweeper interface {
	Run(ctx context.Context, now time.Time) (*service.SweepResult, error)
}

const notLinkedMsg = "🔗 This chat is not linked to a Solo Rising account yet.\n\n" +
	"Send /start to get your chat id, then link it in the app."

// errNotLinked marks a chat without a ledger user.
var errNotLinked = errors.New("chat not linked")

// linkedUser returns the ledger user linked to the current chat.
func linkedUser(ctx context.Context, profiles Profiles, c tele.Context) (*model.User, error) {
	chat := c.Chat()
	if chat == nil {
		return nil, errNotLinked
	}
	user, err := profiles.GetByTelegramChat(ctx, chat.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, errNotLinked
	}
	return user, err
}

// errorText turns a service error into a chat reply.
func errorText(err error) string {
	switch {
	case errors.Is(err, errNotLinked):
		return notLinkedMsg
	case errors.Is(err, repository.ErrInsufficientCoins):
		return "❌ Not enough coins!"
	case errors.Is(err, service.ErrItemOwned):
		return "❌ You already own this item"
	case errors.Is(err, service.ErrItemUnavailable):
		return "❌ This item is reserved for another character"
	case errors.Is(err, service.ErrItemNotFound):
		return "❌ Item not found"
	case errors.Is(err, lock.ErrLockTimeout):
		return "⏳ Your ledger is busy, try again in a moment"
	default:
		log.Error().Err(err).Msg("Bot command failed")
		return "❌ Something went wrong, please try again later"
	}
}

func displayName(name string, id int64) string {
	if name == "" {
		return fmt.Sprintf("Warrior%d", id)
	}
	return name
}
