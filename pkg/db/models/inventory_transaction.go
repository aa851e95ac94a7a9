package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// InventoryTransaction is one append-only ledger entry. Quantity is the
// signed delta applied to the item's on-hand projection.
type InventoryTransaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID          uuid.UUID             `gorm:"column:item_id;type:uuid;not null;index"`
	Type            enums.TransactionType `gorm:"column:type;type:text;not null"`
	Quantity        decimal.Decimal       `gorm:"column:quantity;type:numeric(12,3);not null"`
	PurchaseOrderID *uuid.UUID            `gorm:"column:purchase_order_id;type:uuid"`
	LineID          *uuid.UUID            `gorm:"column:line_id;type:uuid"`
	Reason          *string               `gorm:"column:reason"`
	Actor           *string               `gorm:"column:actor"`
	OccurredAt      time.Time             `gorm:"column:occurred_at;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
