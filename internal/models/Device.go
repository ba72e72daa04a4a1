package models

import "time"

// Device is the single active handset session of a user. The client key
// itself is never stored, only its SHA-256 digest.
type Device struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	ClientKeyHash string    `gorm:"size:64;not null;index" json:"-"`
	Token         string    `json:"token"`
	Model         string    `gorm:"size:255" json:"model"`
	IsIOS         bool      `json:"is_ios"`
	OSVersion     string    `gorm:"size:50" json:"os_version"`
	Battery       *int      `json:"battery"`
	Signal        *int      `json:"signal"`
}
