package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// UnmanagedOrderRequest is an off-catalog purchase request. Staging
// attaches a supplier and optional price; conversion freezes it onto a
// purchase order line.
type UnmanagedOrderRequest struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string              `gorm:"column:name;not null"`
	Quantity            decimal.Decimal     `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit                *string             `gorm:"column:unit"`
	SupplierID          *uuid.UUID          `gorm:"column:supplier_id;type:uuid"`
	UnitPrice           decimal.NullDecimal `gorm:"column:unit_price;type:numeric(12,2)"`
	Status              enums.RequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RequestedBy         *string             `gorm:"column:requested_by"`
	RequestedDepartment *string             `gorm:"column:requested_department"`
	Note                *string             `gorm:"column:note"`
	StagedAt            *time.Time          `gorm:"column:staged_at"`
	ConvertedOrderID    *uuid.UUID          `gorm:"column:converted_order_id;type:uuid"`
	ConvertedLineID     *uuid.UUID          `gorm:"column:converted_line_id;type:uuid"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
