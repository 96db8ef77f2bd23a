// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/config"
	"solo-rising/internal/handler"
	"solo-rising/internal/shop"
)

// ErrNoToken is returned by New when bot.token is empty.
var ErrNoToken = errors.New("bot token is required")

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler *handler.AccountHandler
	rankingHandler *handler.RankingHandler
	storeHandler   *handler.StoreHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Profiles handler.Profiles
	Rankings handler.Rankings
	Store    handler.Store
	Sweeper  handler.Sweeper
}

// New connects to Telegram. Handlers are attached later with Register, so
// the bot can be handed to the notification layer before the services that
// use it exist.
func New(cfg *config.Config) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, ErrNoToken
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logEvent := log.Error().Err(err)
			if c != nil && c.Chat() != nil {
				logEvent = logEvent.Int64("chat_id", c.Chat().ID)
			}
			logEvent.Msg("Bot handler failed")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{bot: teleBot, cfg: cfg}, nil
}

// Register builds the handlers and attaches commands and callbacks.
func (b *Bot) Register(deps *Dependencies) {
	b.accountHandler = handler.NewAccountHandler(deps.Profiles, deps.Rankings)
	b.rankingHandler = handler.NewRankingHandler(deps.Rankings)
	b.storeHandler = handler.NewStoreHandler(deps.Profiles, deps.Store)
	b.adminHandler = handler.NewAdminHandler(deps.Sweeper)

	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())

	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/top", b.rankingHandler.HandleTop)
	b.bot.Handle("/today", b.rankingHandler.HandleToday)

	ledger := b.bot.Group()
	ledger.Use(PrivateChatMiddleware())
	ledger.Handle("/me", b.accountHandler.HandleMe)
	ledger.Handle("/store", b.storeHandler.HandleStore)
	ledger.Handle("/inventory", b.storeHandler.HandleInventory)
	ledger.Handle(&tele.Btn{Unique: shop.CallbackItem}, b.storeHandler.HandleItem)
	ledger.Handle(&tele.Btn{Unique: shop.CallbackBuy}, b.storeHandler.HandleBuy)
	ledger.Handle(&tele.Btn{Unique: shop.CallbackRefresh}, b.storeHandler.HandleRefresh)

	admin := b.bot.Group()
	admin.Use(PrivateChatMiddleware(), AdminMiddleware(b.cfg, deps.Profiles))
	admin.Handle("/sweep", b.adminHandler.HandleSweep)
}

// Tele returns the underlying telebot instance.
func (b *Bot) Tele() *tele.Bot {
	return b.bot
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	go b.bot.Start()

	<-ctx.Done()
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
	return nil
}
