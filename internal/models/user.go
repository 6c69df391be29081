package models

import (
	"time"
)

type UserRole string

const (
	UserRoleSender UserRole = "sender"
	UserRoleDriver UserRole = "driver"
)

// Profile carries the role-specific registration fields. Sender fields and
// driver fields share one struct; the role decides which are populated.
type Profile struct {
	Name  string `gorm:"column:name" json:"name"`
	Email string `gorm:"column:email" json:"email,omitempty"`
	Phone string `gorm:"column:phone" json:"phone,omitempty"`

	// sender
	PreferredPickupZone string `gorm:"column:preferred_pickup_zone" json:"preferredPickupZone,omitempty"`

	// driver
	VehicleType   string  `gorm:"column:vehicle_type" json:"vehicleType,omitempty"`
	VehicleNumber string  `gorm:"column:vehicle_number" json:"vehicleNumber,omitempty"`
	Capacity      float64 `gorm:"column:capacity" json:"capacity,omitempty"`
	LicenseNumber string  `gorm:"column:license_number" json:"licenseNumber,omitempty"`
}

// User is a registered participant keyed by lowercase wallet address.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"column:wallet_address;uniqueIndex;not null" json:"walletAddress"`
	Role          UserRole  `gorm:"column:role;not null;default:'sender'" json:"role"`
	ProfileData   Profile   `gorm:"embedded;embeddedPrefix:profile_" json:"profileData"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// ParseUserRole validates a role string.
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case UserRoleSender, UserRoleDriver:
		return UserRole(s), true
	}
	return "", false
}
