// Package notify pushes reward unlock events to connected users.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"solo-rising/internal/model"
)

// EventRewardUnlocked is the only event type pushed today.
const EventRewardUnlocked = "reward_unlocked"

// Event is one unlock notification.
type Event struct {
	Type        string       `json:"type"`
	UserID      int64        `json:"user_id"`
	Reward      model.Reward `json:"reward"`
	BonusPoints int64        `json:"bonus_points"`
	UnlockedAt  time.Time    `json:"unlocked_at"`
}

// Sender delivers events over one channel. It reports whether the user
// actually received them.
type Sender interface {
	Name() string
	Send(ctx context.Context, user *model.User, events []Event) (bool, error)
}

// Notifier fans events out to every configured sender.
type Notifier struct {
	senders []Sender
}

// NewNotifier creates a Notifier. Nil senders are skipped.
func NewNotifier(senders ...Sender) *Notifier {
	n := &Notifier{}
	for _, s := range senders {
		if s != nil {
			n.senders = append(n.senders, s)
		}
	}
	return n
}

// Notify sends events through all senders and reports whether at least one
// delivered them. Sender errors are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, user *model.User, events []Event) bool {
	if n == nil || user == nil || len(events) == 0 {
		return false
	}

	delivered := false
	for _, s := range n.senders {
		ok, err := s.Send(ctx, user, events)
		if err != nil {
			log.Warn().Err(err).
				Str("channel", s.Name()).
				Int64("user_id", user.ID).
				Msg("Failed to push unlock notification")
			continue
		}
		delivered = delivered || ok
	}
	return delivered
}
