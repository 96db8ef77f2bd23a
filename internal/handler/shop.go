package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"solo-rising/internal/shop"
)

// StoreHandler handles the coin store and inventory.
type StoreHandler struct {
	profiles Profiles
	store    Store
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(profiles Profiles, store Store) *StoreHandler {
	return &StoreHandler{profiles: profiles, store: store}
}

// HandleStore handles /store by sending the store panel.
func (h *StoreHandler) HandleStore(c tele.Context) error {
	user, err := linkedUser(context.Background(), h.profiles, c)
	if err != nil {
		return c.Reply(errorText(err))
	}
	return c.Send(shop.FormatStoreMessage(user.Coins), shop.BuildStorePanel())
}

// HandleInventory handles /inventory.
func (h *StoreHandler) HandleInventory(c tele.Context) error {
	ctx := context.Background()
	user, err := linkedUser(ctx, h.profiles, c)
	if err != nil {
		return c.Reply(errorText(err))
	}

	items, err := h.store.Inventory(ctx, user.ID)
	if err != nil {
		return c.Reply(errorText(err))
	}
	lines := make([]shop.InventoryLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, shop.InventoryLine{ItemType: item.ItemType, Quantity: item.Quantity})
	}
	return c.Reply(shop.FormatInventoryMessage(lines))
}

// HandleItem shows the detail and confirm panel of the tapped item.
func (h *StoreHandler) HandleItem(c tele.Context) error {
	item, ok := shop.GetItem(shop.ItemType(c.Data()))
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Item not found"})
	}
	user, err := linkedUser(context.Background(), h.profiles, c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: errorText(err), ShowAlert: true})
	}
	return c.Edit(shop.FormatItemDetail(item, user.Coins), shop.BuildConfirmPanel(item.Type))
}

// HandleBuy buys the confirmed item and returns to the store panel.
func (h *StoreHandler) HandleBuy(c tele.Context) error {
	ctx := context.Background()
	user, err := linkedUser(ctx, h.profiles, c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: errorText(err), ShowAlert: true})
	}

	purchase, err := h.store.Purchase(ctx, user.ID, shop.ItemType(c.Data()))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: errorText(err), ShowAlert: true})
	}

	if err := c.Respond(&tele.CallbackResponse{
		Text: fmt.Sprintf("✅ Bought %s %s!", purchase.Item.Emoji, purchase.Item.Name),
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to answer callback")
	}
	return c.Edit(shop.FormatStoreMessage(purchase.User.Coins), shop.BuildStorePanel())
}

// HandleRefresh redraws the store panel with the current balance.
func (h *StoreHandler) HandleRefresh(c tele.Context) error {
	user, err := linkedUser(context.Background(), h.profiles, c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: errorText(err), ShowAlert: true})
	}
	return c.Edit(shop.FormatStoreMessage(user.Coins), shop.BuildStorePanel())
}
