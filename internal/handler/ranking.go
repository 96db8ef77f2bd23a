package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/model"
)

const boardSize = 10

var medals = []string{"🥇", "🥈", "🥉"}

func rankLabel(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

// RankingHandler handles leaderboard commands.
type RankingHandler struct {
	rankings Rankings
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankings Rankings) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// HandleTop handles /top [country].
func (h *RankingHandler) HandleTop(c tele.Context) error {
	country := ""
	if args := c.Args(); len(args) > 0 {
		country = strings.ToUpper(strings.TrimSpace(args[0]))
	}

	users, err := h.rankings.GetTopUsers(context.Background(), country, boardSize)
	if err != nil {
		return c.Reply(errorText(err))
	}
	return c.Reply(FormatTop(users, country))
}

// HandleToday handles /today.
func (h *RankingHandler) HandleToday(c tele.Context) error {
	ranks, err := h.rankings.GetDailyEarners(context.Background(), boardSize)
	if err != nil {
		return c.Reply(errorText(err))
	}
	return c.Reply(FormatDaily(ranks))
}

// FormatTop renders the points leaderboard.
func FormatTop(users []*model.User, country string) string {
	var sb strings.Builder
	if country != "" {
		fmt.Fprintf(&sb, "🏆 Top Hunters (%s)\n", country)
	} else {
		sb.WriteString("🏆 Top Hunters\n")
	}
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	if len(users) == 0 {
		sb.WriteString("No hunters yet\n")
		return sb.String()
	}
	for i, u := range users {
		fmt.Fprintf(&sb, "%s %s: %d pts 🔥%d\n", rankLabel(i), displayName(u.WarriorName, u.ID), u.Points, u.Streak)
	}
	return sb.String()
}

// FormatDaily renders today's earners.
func FormatDaily(ranks []*model.DailyRank) string {
	var sb strings.Builder
	sb.WriteString("📊 Today's Top Earners\n")
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	if len(ranks) == 0 {
		sb.WriteString("Nobody has trained today. Be the first!\n")
		return sb.String()
	}
	for i, r := range ranks {
		fmt.Fprintf(&sb, "%s %s: %+d\n", rankLabel(i), displayName(r.WarriorName, r.UserID), r.Points)
	}
	return sb.String()
}
