package repository

import "time"

// BillingCompanyListFilter billing company listing filter
type BillingCompanyListFilter struct {
	Page       int
	PageSize   int
	Search     string
	State      string
	ActiveOnly bool
}

// PaymentGatewayListFilter payment gateway listing filter
type PaymentGatewayListFilter struct {
	Page        int
	PageSize    int
	CompanyID   uint
	GatewayType string
	Method      string
	ActiveOnly  bool
}

// OrderListFilter order listing filter
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	CompanyID     uint
	GatewayID     uint
	Status        string
	PaymentMethod string
	OrderNo       string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// CartListFilter abandoned cart listing filter
type CartListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter user listing filter
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	State       string
	ActiveOnly  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
