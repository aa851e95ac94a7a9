package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a vendor purchase orders are placed with.
type Supplier struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     *string   `gorm:"column:email"`
	CCEmail   *string   `gorm:"column:cc_email"`
	Phone     *string   `gorm:"column:phone"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
