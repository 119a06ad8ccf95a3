package models

import (
	"time"

	"gorm.io/gorm"
)

// AbandonedCart idle cart snapshot used by recovery automations.
type AbandonedCart struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	UserID           uint           `gorm:"index" json:"user_id"`
	ItemsJSON        JSON           `gorm:"type:json" json:"items_json"`
	Status           string         `gorm:"index;not null;default:'abandoned'" json:"status"` // abandoned / recovered / expired
	EmailSent        bool           `gorm:"not null;default:false" json:"email_sent"`
	WhatsAppSent     bool           `gorm:"not null;default:false" json:"whatsapp_sent"`
	RecoveredOrderID uint           `gorm:"index" json:"recovered_order_id"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name.
func (AbandonedCart) TableName() string {
	return "abandoned_carts"
}
