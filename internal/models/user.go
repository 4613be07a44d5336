package models

import (
	"time"
)

// User is the platform account a verification record belongs to.
// Authentication itself is handled upstream; this table is the directory
// the workflow reads names/emails from and writes the cached KYC status to.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	KYCStatus KYCStatus `gorm:"type:varchar(20);not null;default:'incomplete'" json:"kyc_status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
