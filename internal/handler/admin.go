package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// AdminHandler handles admin-only commands.
type AdminHandler struct {
	sweeper Sweeper
	now     func() time.Time
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sweeper Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, now: time.Now}
}

// HandleSweep handles /sweep by running the nightly streak sweep now.
func (h *AdminHandler) HandleSweep(c tele.Context) error {
	result, err := h.sweeper.Run(context.Background(), h.now())
	if err != nil {
		return c.Reply(errorText(err))
	}

	if sender := c.Sender(); sender != nil {
		log.Info().
			Int64("admin_telegram_id", sender.ID).
			Int("reset", result.Reset).
			Msg("Admin ran streak sweep")
	}
	return c.Reply(fmt.Sprintf(
		"🧹 Streak sweep done\n\n"+
			"Processed: %d\n"+
			"Reset: %d\n"+
			"Failed: %d",
		result.Processed, result.Reset, result.Failed,
	))
}
