package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a catalog entry under inventory management.
type Item struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU                  string     `gorm:"column:sku;not null;uniqueIndex:idx_items_sku"`
	Name                 string     `gorm:"column:name;not null"`
	Unit                 string     `gorm:"column:unit;not null;default:'ea'"`
	ReorderPoint         int        `gorm:"column:reorder_point;not null;default:0"`
	DefaultOrderQuantity int        `gorm:"column:default_order_quantity;not null;default:1"`
	DefaultSupplierID    *uuid.UUID `gorm:"column:default_supplier_id;type:uuid"`
	Department           *string    `gorm:"column:department"`
	Active               bool       `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
