package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is the on-hand projection per catalog item, derived
// from the transaction ledger.
type InventoryItem struct {
	ItemID    uuid.UUID       `gorm:"column:item_id;type:uuid;primaryKey"`
	OnHand    decimal.Decimal `gorm:"column:on_hand;type:numeric(12,3);not null;default:0"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
