package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// PurchaseOrder is the root of the order lifecycle.
type PurchaseOrder struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID      uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null"`
	Status          enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	OrderDate       time.Time                 `gorm:"column:order_date;not null"`
	IssuedAt        *time.Time                `gorm:"column:issued_at"`
	Department      *string                   `gorm:"column:department"`
	DocumentPath    *string                   `gorm:"column:document_path"`
	DocumentVersion int                       `gorm:"column:document_version;not null;default:0"`
	Note            *string                   `gorm:"column:note"`
	CreatedBy       *string                   `gorm:"column:created_by"`
	Lines           []PurchaseOrderLine       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// EarliestReplyDue returns the soonest reply due date transcribed on
// any line, or nil when no supplier reply has been recorded yet.
func (o PurchaseOrder) EarliestReplyDue() *time.Time {
	var earliest *time.Time
	for _, line := range o.Lines {
		if line.ReplyDueDate == nil {
			continue
		}
		if earliest == nil || line.ReplyDueDate.Before(*earliest) {
			earliest = line.ReplyDueDate
		}
	}
	return earliest
}
