package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Username    string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:255" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	IsAdmin     bool       `gorm:"not null;default:false" json:"is_admin"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Budgets     []Budget   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Payees      []Payee    `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}
