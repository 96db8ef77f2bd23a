package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/model"
)

// AccountHandler handles linking and ledger commands.
type AccountHandler struct {
	profiles Profiles
	rankings Rankings
}

// NewAccountHandler creates a new AccountHandler. rankings may be nil, which
// leaves today's points out of /me.
func NewAccountHandler(profiles Profiles, rankings Rankings) *AccountHandler {
	return &AccountHandler{profiles: profiles, rankings: rankings}
}

// HandleStart handles the /start command. It replies with the chat id the
// user needs to link the chat, or greets an already linked user.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	user, err := linkedUser(context.Background(), h.profiles, c)
	if err == nil {
		return c.Reply(fmt.Sprintf(
			"👋 Welcome back, %s!\n\n"+
				"Commands:\n"+
				"/me - your ledger\n"+
				"/top - leaderboard\n"+
				"/today - today's top earners\n"+
				"/store - spend your coins\n"+
				"/inventory - your items",
			displayName(user.WarriorName, user.ID),
		))
	}
	if !errors.Is(err, errNotLinked) {
		return c.Reply(errorText(err))
	}

	return c.Reply(fmt.Sprintf(
		"⚔️ Welcome to Solo Rising!\n\n"+
			"Your chat id is: %d\n\n"+
			"Link it from your profile in the app to get reward alerts here.",
		chat.ID,
	))
}

// HandleMe handles the /me command.
func (h *AccountHandler) HandleMe(c tele.Context) error {
	ctx := context.Background()
	user, err := linkedUser(ctx, h.profiles, c)
	if err != nil {
		return c.Reply(errorText(err))
	}

	msg := FormatLedger(user)
	if h.rankings != nil {
		today, err := h.rankings.GetUserDailyPoints(ctx, user.ID)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to load today's points")
		} else {
			msg += fmt.Sprintf("📈 Today: %+d\n", today)
		}
	}
	return c.Reply(msg)
}

// FormatLedger renders a user's ledger snapshot.
func FormatLedger(user *model.User) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 %s\n", displayName(user.WarriorName, user.ID))
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	if user.CharacterType != nil {
		if c, ok := model.LookupCharacter(*user.CharacterType); ok {
			fmt.Fprintf(&sb, "🎭 %s (%s)\n", c.DisplayName, c.Title)
		}
	}
	fmt.Fprintf(&sb, "⭐ Points: %d\n", user.Points)
	fmt.Fprintf(&sb, "🪙 Coins: %d\n", user.Coins)
	fmt.Fprintf(&sb, "🔥 Streak: %d (best %d)\n", user.Streak, user.LongestStreak)
	if user.LastWorkoutAt != nil {
		fmt.Fprintf(&sb, "🕒 Last workout: %s\n", user.LastWorkoutAt.Format("2006-01-02 15:04"))
	} else {
		sb.WriteString("🕒 No workouts yet\n")
	}
	if user.Country != "" {
		fmt.Fprintf(&sb, "🌏 %s\n", user.Country)
	}
	return sb.String()
}
