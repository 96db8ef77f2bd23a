package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"solo-rising/internal/config"
	"solo-rising/internal/model"
	"solo-rising/internal/repository"
)

// fakeContext implements the parts of tele.Context the middleware uses.
type fakeContext struct {
	tele.Context
	chat    *tele.Chat
	replies []string
}

func (f *fakeContext) Chat() *tele.Chat   { return f.chat }
func (f *fakeContext) Sender() *tele.User { return &tele.User{ID: 1} }
func (f *fakeContext) Text() string       { return "/sweep" }

func (f *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	f.replies = append(f.replies, what.(string))
	return nil
}

type chatProfiles map[int64]int64

func (p chatProfiles) GetByTelegramChat(_ context.Context, chatID int64) (*model.User, error) {
	if id, ok := p[chatID]; ok {
		return &model.User{ID: id}, nil
	}
	return nil, repository.ErrUserNotFound
}

func run(mw tele.MiddlewareFunc, c tele.Context) bool {
	called := false
	_ = mw(func(tele.Context) error {
		called = true
		return nil
	})(c)
	return called
}

func TestAdminMiddlewareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1_000_000), 1, 10).Draw(t, "adminIDs")
		userID := rapid.Int64Range(1, 1_000_000).Draw(t, "userID")
		chatID := rapid.Int64Range(1, 1_000_000).Draw(t, "chatID")
		linked := rapid.Bool().Draw(t, "linked")

		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}
		profiles := chatProfiles{}
		if linked {
			profiles[chatID] = userID
		}

		c := &fakeContext{chat: &tele.Chat{ID: chatID, Type: tele.ChatPrivate}}
		called := run(AdminMiddleware(cfg, profiles), c)

		want := linked && cfg.IsAdmin(userID)
		if called != want {
			t.Fatalf("admin check: linked=%v userID=%d admins=%v called=%v", linked, userID, adminIDs, called)
		}
		if !called && len(c.replies) != 1 {
			t.Fatalf("rejected caller got %d replies", len(c.replies))
		}
	})
}

func TestPrivateChatMiddleware(t *testing.T) {
	mw := PrivateChatMiddleware()

	assert.True(t, run(mw, &fakeContext{chat: &tele.Chat{ID: 5, Type: tele.ChatPrivate}}))
	assert.False(t, run(mw, &fakeContext{chat: &tele.Chat{ID: -5, Type: tele.ChatGroup}}))
	assert.False(t, run(mw, &fakeContext{chat: &tele.Chat{ID: -6, Type: tele.ChatSuperGroup}}))
	assert.False(t, run(mw, &fakeContext{}))
}

func TestRecoveryMiddleware(t *testing.T) {
	c := &fakeContext{chat: &tele.Chat{ID: 5}}
	err := RecoveryMiddleware()(func(tele.Context) error { panic("boom") })(c)

	assert.NoError(t, err)
	assert.Len(t, c.replies, 1)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(&config.Config{})
	assert.ErrorIs(t, err, ErrNoToken)
}
