package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// PurchaseOrderLine is one row of an order. Managed lines point at a
// catalog item; unmanaged lines point at the converted request. Exactly
// one of ItemID and UnmanagedRequestID is set.
type PurchaseOrderLine struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID    uuid.UUID           `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	Kind               enums.LineKind      `gorm:"column:kind;type:text;not null"`
	ItemID             *uuid.UUID          `gorm:"column:item_id;type:uuid"`
	UnmanagedRequestID *uuid.UUID          `gorm:"column:unmanaged_request_id;type:uuid"`
	Description        string              `gorm:"column:description;not null"`
	Unit               *string             `gorm:"column:unit"`
	Quantity           decimal.Decimal     `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice          decimal.NullDecimal `gorm:"column:unit_price;type:numeric(12,2)"`
	Note               *string             `gorm:"column:note"`
	ReplyDueDate       *time.Time          `gorm:"column:reply_due_date"`
	ReceivedQuantity   decimal.Decimal     `gorm:"column:received_quantity;type:numeric(12,3);not null;default:0"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Remaining returns the undelivered quantity on the line.
func (l PurchaseOrderLine) Remaining() decimal.Decimal {
	return l.Quantity.Sub(l.ReceivedQuantity)
}

// FullyReceived reports whether delivery is complete for the line.
func (l PurchaseOrderLine) FullyReceived() bool {
	return l.ReceivedQuantity.GreaterThanOrEqual(l.Quantity)
}
