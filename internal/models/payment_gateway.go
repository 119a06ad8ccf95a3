package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentGateway configured payment-provider credential set belonging to a
// billing company. Resolution picks the highest-priority active gateway
// supporting the requested method.
type PaymentGateway struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	CompanyID        uint           `gorm:"index;not null" json:"company_id"`
	Name             string         `gorm:"not null" json:"name"`
	GatewayType      string         `gorm:"not null;index" json:"gateway_type"` // ipag / mercadopago / stripe
	SupportedMethods StringArray    `gorm:"type:json" json:"supported_methods"` // subset of credit_card, pix
	Priority         int            `gorm:"not null;default:0;index" json:"priority"` // higher wins
	IsActive         bool           `gorm:"not null;index" json:"is_active"`
	Sandbox          bool           `gorm:"not null;default:false" json:"sandbox"`
	CredentialsJSON  JSON           `gorm:"type:json" json:"credentials_json"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name.
func (PaymentGateway) TableName() string {
	return "payment_gateways"
}

// SupportsMethod reports whether the gateway accepts the payment method.
func (g *PaymentGateway) SupportsMethod(method string) bool {
	if g == nil {
		return false
	}
	return g.SupportedMethods.Contains(method)
}
