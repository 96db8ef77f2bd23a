// Package shop defines the coin store catalog and its Telegram panels.
package shop

// ItemType identifies a store item.
type ItemType string

// Item types. New items only need an entry in Items and in displayOrder.
const (
	ItemFlameAura    ItemType = "aura_flame"
	ItemShadowAura   ItemType = "aura_shadow"
	ItemHeroCape     ItemType = "hero_cape"
	ItemMonarchTitle ItemType = "title_monarch"
	ItemSenzuBean    ItemType = "senzu_bean"
	ItemProteinShake ItemType = "protein_shake"
)

// ItemCategory groups items in the store.
type ItemCategory string

const (
	CategoryAura        ItemCategory = "aura"
	CategoryOutfit      ItemCategory = "outfit"
	CategoryTitle       ItemCategory = "title"
	CategoryCollectible ItemCategory = "collectible"
)

// ItemConfig describes a store item.
type ItemConfig struct {
	Type        ItemType     `json:"type"`
	Name        string       `json:"name"`
	Emoji       string       `json:"emoji"`
	Price       int64        `json:"price"`
	Description string       `json:"description"`
	Category    ItemCategory `json:"category"`
	// Stackable items can be bought repeatedly; the rest are owned once.
	Stackable bool `json:"stackable"`
	// Character restricts an item to one persona. Empty means everyone.
	Character string `json:"character,omitempty"`
}

// Items contains all store items.
var Items = map[ItemType]ItemConfig{
	ItemFlameAura: {
		Type:        ItemFlameAura,
		Name:        "Flame Aura",
		Emoji:       "🔥",
		Price:       50,
		Description: "A blazing aura around your profile card",
		Category:    CategoryAura,
	},
	ItemShadowAura: {
		Type:        ItemShadowAura,
		Name:        "Shadow Aura",
		Emoji:       "🌑",
		Price:       80,
		Description: "Shadows rise behind your name",
		Category:    CategoryAura,
		Character:   "jin-woo",
	},
	ItemHeroCape: {
		Type:        ItemHeroCape,
		Name:        "Hero Cape",
		Emoji:       "🦸",
		Price:       80,
		Description: "A plain white cape. Bald head not included",
		Category:    CategoryOutfit,
		Character:   "saitama",
	},
	ItemMonarchTitle: {
		Type:        ItemMonarchTitle,
		Name:        "Monarch Title",
		Emoji:       "👑",
		Price:       200,
		Description: "Shows the Monarch title on the leaderboard",
		Category:    CategoryTitle,
	},
	ItemSenzuBean: {
		Type:        ItemSenzuBean,
		Name:        "Senzu Bean",
		Emoji:       "🫘",
		Price:       10,
		Description: "A collectible bean. Collect as many as you like",
		Category:    CategoryCollectible,
		Stackable:   true,
		Character:   "goku",
	},
	ItemProteinShake: {
		Type:        ItemProteinShake,
		Name:        "Protein Shake",
		Emoji:       "🥤",
		Price:       5,
		Description: "A collectible post-workout shake",
		Category:    CategoryCollectible,
		Stackable:   true,
	},
}

var displayOrder = []ItemType{
	ItemFlameAura,
	ItemShadowAura,
	ItemHeroCape,
	ItemMonarchTitle,
	ItemSenzuBean,
	ItemProteinShake,
}

// GetAllItems returns all store items in display order.
func GetAllItems() []ItemConfig {
	items := make([]ItemConfig, 0, len(displayOrder))
	for _, t := range displayOrder {
		if item, ok := Items[t]; ok {
			items = append(items, item)
		}
	}
	return items
}

// GetItem returns the item config for a given type.
func GetItem(itemType ItemType) (ItemConfig, bool) {
	item, ok := Items[itemType]
	return item, ok
}

// AvailableTo reports whether a user with the given character may buy the
// item.
func (c ItemConfig) AvailableTo(character *string) bool {
	if c.Character == "" {
		return true
	}
	return character != nil && *character == c.Character
}
