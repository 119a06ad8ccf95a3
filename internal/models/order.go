package models

import (
	"time"

	"gorm.io/gorm"
)

// Order checkout order. Created at checkout, mutated by payment callbacks and
// admin status updates; hard-deleted only by the duplicate cleanup tool.
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	OrderNo        string         `gorm:"index;not null" json:"order_no"` // not unique, see duplicate cleanup
	UserID         uint           `gorm:"index" json:"user_id"`
	Status         string         `gorm:"index;not null" json:"status"`
	PaymentMethod  string         `json:"payment_method"`
	Installments   int            `gorm:"not null;default:1" json:"installments"`
	Total          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`
	GatewayID      uint           `gorm:"index" json:"gateway_id"`
	CompanyID      uint           `gorm:"index" json:"company_id"`
	TransactionID  string         `gorm:"index" json:"transaction_id"` // provider TID
	TrackingCode   string         `json:"tracking_code"`
	TrackingURL    string         `gorm:"type:text" json:"tracking_url"`
	Carrier        string         `json:"carrier"`
	DetailsJSON    JSON           `gorm:"type:json" json:"details_json"` // line items, addresses, UTM
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`
	CanceledAt     *time.Time     `json:"canceled_at"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name.
func (Order) TableName() string {
	return "orders"
}
