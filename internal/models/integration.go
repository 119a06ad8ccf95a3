package models

import (
	"time"

	"gorm.io/gorm"
)

// Integration third-party integration credential record, one row per type.
type Integration struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	IntegrationType string         `gorm:"uniqueIndex;not null" json:"integration_type"` // woocommerce / smtp / bling / meta / mercadopago
	CredentialsJSON JSON           `gorm:"type:json" json:"credentials_json"`
	IsActive        bool           `gorm:"not null" json:"is_active"`
	LastTestAt      *time.Time     `json:"last_test_at"`
	LastTestOK      bool           `gorm:"not null;default:false" json:"last_test_ok"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name.
func (Integration) TableName() string {
	return "integrations"
}
