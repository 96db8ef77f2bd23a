package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/model"
	"solo-rising/internal/repository"
	"solo-rising/internal/service"
	"solo-rising/internal/shop"
)

type fakeContext struct {
	tele.Context
	chat      *tele.Chat
	args      []string
	data      string
	replies   []string
	edits     []string
	responses []*tele.CallbackResponse
}

func (f *fakeContext) Chat() *tele.Chat   { return f.chat }
func (f *fakeContext) Sender() *tele.User { return &tele.User{ID: f.chat.ID} }
func (f *fakeContext) Args() []string     { return f.args }
func (f *fakeContext) Data() string       { return f.data }

func (f *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	f.replies = append(f.replies, what.(string))
	return nil
}

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.replies = append(f.replies, what.(string))
	return nil
}

func (f *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	f.edits = append(f.edits, what.(string))
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func privateChat(id int64) *fakeContext {
	return &fakeContext{chat: &tele.Chat{ID: id, Type: tele.ChatPrivate}}
}

type fakeProfiles map[int64]*model.User

func (f fakeProfiles) GetByTelegramChat(_ context.Context, chatID int64) (*model.User, error) {
	if u, ok := f[chatID]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakeStore struct {
	bought []shop.ItemType
}

func (f *fakeStore) Purchase(_ context.Context, _ int64, item shop.ItemType) (*service.Purchase, error) {
	cfg, ok := shop.GetItem(item)
	if !ok {
		return nil, service.ErrItemNotFound
	}
	if cfg.Price > 60 {
		return nil, repository.ErrInsufficientCoins
	}
	f.bought = append(f.bought, item)
	return &service.Purchase{Item: cfg, Quantity: 1, User: &model.User{Coins: 60 - cfg.Price}}, nil
}

func (f *fakeStore) Inventory(context.Context, int64) ([]model.InventoryItem, error) {
	return []model.InventoryItem{{ItemType: string(shop.ItemProteinShake), Quantity: 3}}, nil
}

func linkedProfiles() fakeProfiles {
	streakTime := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	goku := model.CharacterGoku
	return fakeProfiles{
		100: {ID: 7, WarriorName: "Kakarot", Points: 120, Coins: 60, Streak: 4, LongestStreak: 9, LastWorkoutAt: &streakTime, CharacterType: &goku, Country: "JP"},
	}
}

func TestHandleStart(t *testing.T) {
	h := NewAccountHandler(linkedProfiles(), nil)

	unlinked := privateChat(555)
	require.NoError(t, h.HandleStart(unlinked))
	require.Len(t, unlinked.replies, 1)
	assert.Contains(t, unlinked.replies[0], "555", "an unlinked chat learns its id")

	linked := privateChat(100)
	require.NoError(t, h.HandleStart(linked))
	assert.Contains(t, linked.replies[0], "Welcome back, Kakarot")
}

func TestHandleMe(t *testing.T) {
	h := NewAccountHandler(linkedProfiles(), &fakeRankings{})

	c := privateChat(100)
	require.NoError(t, h.HandleMe(c))
	msg := c.replies[0]
	assert.Contains(t, msg, "Today: +35")
	assert.Contains(t, msg, "Points: 120")
	assert.Contains(t, msg, "Coins: 60")
	assert.Contains(t, msg, "Streak: 4 (best 9)")
	assert.Contains(t, msg, "Saiyan Warrior")

	c = privateChat(1)
	require.NoError(t, h.HandleMe(c))
	assert.Equal(t, notLinkedMsg, c.replies[0])
}

func TestStoreFlow(t *testing.T) {
	store := &fakeStore{}
	h := NewStoreHandler(linkedProfiles(), store)

	c := privateChat(100)
	require.NoError(t, h.HandleStore(c))
	assert.Contains(t, c.replies[0], "Your coins: 60")

	c.data = string(shop.ItemFlameAura)
	require.NoError(t, h.HandleItem(c))
	assert.Contains(t, c.edits[0], "Flame Aura")

	require.NoError(t, h.HandleBuy(c))
	assert.Equal(t, []shop.ItemType{shop.ItemFlameAura}, store.bought)
	assert.Contains(t, c.edits[1], "Your coins: 10")

	c.data = string(shop.ItemMonarchTitle)
	require.NoError(t, h.HandleBuy(c))
	last := c.responses[len(c.responses)-1]
	assert.True(t, last.ShowAlert)
	assert.Equal(t, "❌ Not enough coins!", last.Text)

	c.data = "excalibur"
	require.NoError(t, h.HandleItem(c))
	assert.Equal(t, "❌ Item not found", c.responses[len(c.responses)-1].Text)

	inv := privateChat(100)
	require.NoError(t, h.HandleInventory(inv))
	assert.Contains(t, inv.replies[0], "Protein Shake x3")
}

type fakeRankings struct{ country string }

func (f *fakeRankings) GetTopUsers(_ context.Context, country string, _ int) ([]*model.User, error) {
	f.country = country
	return []*model.User{{ID: 1, WarriorName: "Sung", Points: 900, Streak: 12}, {ID: 2, Points: 10}}, nil
}

func (f *fakeRankings) GetDailyEarners(context.Context, int) ([]*model.DailyRank, error) {
	return nil, errors.New("db down")
}

func (f *fakeRankings) GetUserDailyPoints(_ context.Context, userID int64) (int64, error) {
	if userID != 7 {
		return 0, errors.New("unexpected user")
	}
	return 35, nil
}

func TestRankingHandler(t *testing.T) {
	rankings := &fakeRankings{}
	h := NewRankingHandler(rankings)

	c := privateChat(1)
	c.args = []string{"kr"}
	require.NoError(t, h.HandleTop(c))
	assert.Equal(t, "KR", rankings.country)
	assert.Contains(t, c.replies[0], "🥇 Sung: 900 pts")
	assert.Contains(t, c.replies[0], "🥈 Warrior2: 10 pts")

	c = privateChat(1)
	require.NoError(t, h.HandleToday(c))
	assert.Contains(t, c.replies[0], "Something went wrong")
}

func TestFormatDaily(t *testing.T) {
	assert.Contains(t, FormatDaily(nil), "Nobody has trained today")

	msg := FormatDaily([]*model.DailyRank{{UserID: 1, WarriorName: "Sung", Points: 42}, {UserID: 2, WarriorName: "Zero", Points: -10}})
	assert.Contains(t, msg, "🥇 Sung: +42")
	assert.Contains(t, msg, "🥈 Zero: -10")
}

type fakeSweeper struct{}

func (fakeSweeper) Run(context.Context, time.Time) (*service.SweepResult, error) {
	return &service.SweepResult{Processed: 10, Reset: 2}, nil
}

func TestHandleSweep(t *testing.T) {
	c := privateChat(1)
	require.NoError(t, NewAdminHandler(fakeSweeper{}).HandleSweep(c))
	assert.Contains(t, c.replies[0], "Processed: 10")
	assert.Contains(t, c.replies[0], "Reset: 2")
}
