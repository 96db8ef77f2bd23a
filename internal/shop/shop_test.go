package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogConsistent(t *testing.T) {
	items := GetAllItems()
	assert.Len(t, items, len(Items), "every item must be in display order")
	for _, item := range items {
		assert.Positive(t, item.Price, item.Type)
		assert.NotEmpty(t, item.Name, item.Type)
	}
}

func TestAvailableTo(t *testing.T) {
	goku := "goku"
	saitama := "saitama"

	bean, _ := GetItem(ItemSenzuBean)
	assert.True(t, bean.AvailableTo(&goku))
	assert.False(t, bean.AvailableTo(&saitama))
	assert.False(t, bean.AvailableTo(nil))

	aura, _ := GetItem(ItemFlameAura)
	assert.True(t, aura.AvailableTo(nil))
}

func TestFormatInventoryMessage(t *testing.T) {
	assert.Contains(t, FormatInventoryMessage(nil), "empty")

	msg := FormatInventoryMessage([]InventoryLine{
		{ItemType: string(ItemProteinShake), Quantity: 3},
		{ItemType: string(ItemFlameAura), Quantity: 1},
		{ItemType: "retired_item", Quantity: 1},
	})
	assert.Contains(t, msg, "Protein Shake x3")
	assert.Contains(t, msg, "Flame Aura\n")
	assert.NotContains(t, msg, "retired_item")
}

func TestBuildStorePanel(t *testing.T) {
	markup := BuildStorePanel()
	// three rows of two items plus the refresh row
	assert.Len(t, markup.InlineKeyboard, 4)
}
