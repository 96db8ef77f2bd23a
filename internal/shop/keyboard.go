package shop

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// Callback data is passed through telebot's unique+data scheme.
const (
	CallbackItem    = "store_item"
	CallbackBuy     = "store_buy"
	CallbackRefresh = "store_refresh"
)

// BuildStorePanel creates the store panel with one button per item,
// two per row.
func BuildStorePanel() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	items := GetAllItems()
	var rows []tele.Row
	var current []tele.Btn
	for i, item := range items {
		btn := markup.Data(
			fmt.Sprintf("%s %s (%d🪙)", item.Emoji, item.Name, item.Price),
			CallbackItem,
			string(item.Type),
		)
		current = append(current, btn)
		if len(current) == 2 || i == len(items)-1 {
			rows = append(rows, markup.Row(current...))
			current = nil
		}
	}
	rows = append(rows, markup.Row(markup.Data("🔄 Refresh", CallbackRefresh)))

	markup.Inline(rows...)
	return markup
}

// BuildConfirmPanel creates the purchase confirmation panel.
func BuildConfirmPanel(itemType ItemType) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ Buy", CallbackBuy, string(itemType)),
		markup.Data("↩️ Back", CallbackRefresh),
	))
	return markup
}

// FormatStoreMessage creates the store header.
func FormatStoreMessage(coins int64) string {
	var sb strings.Builder
	sb.WriteString("🏪 Solo Rising Store\n")
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&sb, "🪙 Your coins: %d\n", coins)
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	sb.WriteString("Tap an item for details:")
	return sb.String()
}

// FormatItemDetail creates the item detail message.
func FormatItemDetail(item ItemConfig, coins int64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", item.Emoji, item.Name)
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&sb, "🪙 Price: %d coins\n", item.Price)
	if item.Stackable {
		sb.WriteString("📦 Stackable\n")
	}
	if item.Character != "" {
		fmt.Fprintf(&sb, "🎭 Only for %s\n", item.Character)
	}
	fmt.Fprintf(&sb, "📝 %s\n", item.Description)
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	if coins < item.Price {
		fmt.Fprintf(&sb, "❌ Not enough coins (%d)", coins)
	} else {
		sb.WriteString("Buy it?")
	}
	return sb.String()
}

// InventoryLine is one owned item for display.
type InventoryLine struct {
	ItemType string
	Quantity int
}

// FormatInventoryMessage lists owned items.
func FormatInventoryMessage(lines []InventoryLine) string {
	if len(lines) == 0 {
		return "🎒 Your inventory is empty.\n\nOpen the store with /store"
	}

	var sb strings.Builder
	sb.WriteString("🎒 Inventory\n")
	sb.WriteString("━━━━━━━━━━━━━━━\n")
	for _, l := range lines {
		item, ok := GetItem(ItemType(l.ItemType))
		if !ok {
			continue
		}
		if item.Stackable {
			fmt.Fprintf(&sb, "%s %s x%d\n", item.Emoji, item.Name, l.Quantity)
		} else {
			fmt.Fprintf(&sb, "%s %s\n", item.Emoji, item.Name)
		}
	}
	return sb.String()
}
