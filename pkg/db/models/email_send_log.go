package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// EmailSendLog records every dispatch attempt, successful or not. Body
// is always persisted so failed sends can be audited verbatim.
type EmailSendLog struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseOrderID uuid.UUID             `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	Recipient       string                `gorm:"column:recipient;not null;default:''"`
	CC              *string               `gorm:"column:cc"`
	Subject         string                `gorm:"column:subject;not null"`
	Body            string                `gorm:"column:body;not null"`
	AttachmentPath  *string               `gorm:"column:attachment_path"`
	Status          enums.EmailSendStatus `gorm:"column:status;type:text;not null"`
	ErrorMessage    *string               `gorm:"column:error_message"`
	SentBy          *string               `gorm:"column:sent_by"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
