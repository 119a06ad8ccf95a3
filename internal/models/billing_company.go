package models

import (
	"time"

	"gorm.io/gorm"
)

// BillingCompany legal entity issuing invoices; owns a pool of payment
// gateways and a Bling OAuth credential set.
type BillingCompany struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	CNPJ      string         `gorm:"type:varchar(20);index" json:"cnpj"`
	States    StringArray    `gorm:"type:json" json:"states"`                 // served UF codes, uppercase
	IsDefault bool           `gorm:"not null;default:false" json:"is_default"` // fallback company, first match wins
	IsActive  bool           `gorm:"not null;index" json:"is_active"`
	BlingJSON JSON           `gorm:"type:json" json:"bling_json"` // Bling OAuth credential blob
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Gateways []PaymentGateway `gorm:"foreignKey:CompanyID" json:"gateways,omitempty"`
}

// TableName overrides the table name.
func (BillingCompany) TableName() string {
	return "billing_companies"
}
