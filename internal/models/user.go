// Package models defines the persistent data models.
package models

import (
	"time"
)

// User account. Customers, staff and admins share one table and are
// distinguished by Role.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	Status       int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	CustomerDetail *CustomerDetail `gorm:"foreignKey:UserID" json:"customer_detail,omitempty"`
}

// TableName overrides the table name.
func (User) TableName() string {
	return "users"
}

// User roles
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// UserStatus values
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

// IsValidRole reports whether role is a known user role.
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// IsStaff reports whether the actor holds staff or admin privileges.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// IsAdmin reports whether the actor holds admin privileges.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CustomerDetail holds the contact profile a customer must complete
// before placing a booking.
type CustomerDetail struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Phone      string    `gorm:"type:varchar(20);not null" json:"phone"`
	Address    *string   `gorm:"type:varchar(255)" json:"address,omitempty"`
	NationalID *string   `gorm:"type:varchar(128)" json:"national_id,omitempty"` // AES-encrypted at rest when a key is configured
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides the table name.
func (CustomerDetail) TableName() string {
	return "customer_details"
}
