package state

import (
	"fmt"

	"github.com/jwebster45206/gatebound/pkg/apperr"
)

type ItemType string

const (
	ItemConsumable ItemType = "consumable"
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemGift       ItemType = "gift"
	ItemMaterial   ItemType = "material"
	ItemKey        ItemType = "key"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type InventoryItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     ItemType `json:"type"`
	Quantity int      `json:"quantity"`
	Value    int      `json:"value"`
	Rarity   Rarity   `json:"rarity,omitempty"`
}

// AddItem stacks onto an existing entry with the same id or appends a new one.
func (gs *GameState) AddItem(item InventoryItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	for i := range gs.Inventory {
		if gs.Inventory[i].ID == item.ID {
			gs.Inventory[i].Quantity += item.Quantity
			return
		}
	}
	gs.Inventory = append(gs.Inventory, item)
}

// AddGold adds n gold; the balance never drops below zero.
func (gs *GameState) AddGold(n int) {
	gs.Gold = max(gs.Gold+n, 0)
}

// SpendGold deducts n gold or fails without mutating.
func (gs *GameState) SpendGold(n int) error {
	if n < 0 {
		return apperr.Newf(apperr.CodeInvalidArgument, "cannot spend negative gold: %d", n)
	}
	if gs.Gold < n {
		return apperr.WithMetadata(apperr.CodeInsufficientResource,
			fmt.Sprintf("not enough gold: need %d, have %d", n, gs.Gold),
			map[string]string{"resource": "gold"})
	}
	gs.Gold -= n
	return nil
}
