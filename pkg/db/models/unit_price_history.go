package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitPriceHistory keeps every observed price per item and supplier.
type UnitPriceHistory struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID          uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index"`
	SupplierID      uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	PurchaseOrderID *uuid.UUID      `gorm:"column:purchase_order_id;type:uuid"`
	RecordedAt      time.Time       `gorm:"column:recorded_at;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
