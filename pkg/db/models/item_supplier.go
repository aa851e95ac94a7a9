package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemSupplier is a price-list row linking an item to a supplier. The
// unit price may be null when the link was created lazily after a send.
type ItemSupplier struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID     uuid.UUID           `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_item_suppliers_pair"`
	SupplierID uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:idx_item_suppliers_pair"`
	UnitPrice  decimal.NullDecimal `gorm:"column:unit_price;type:numeric(12,2)"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
