package models

import (
	"time"

	"gorm.io/gorm"
)

// User storefront customer.
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	CPF          string         `gorm:"type:varchar(14);index" json:"cpf"`
	State        string         `gorm:"type:varchar(2);index" json:"state"` // UF code, uppercase
	PasswordHash string         `gorm:"not null" json:"-"`
	IsActive     bool           `gorm:"not null" json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name.
func (User) TableName() string {
	return "users"
}
