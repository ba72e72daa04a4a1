package models

import (
	"time"

	"gorm.io/datatypes"
)

// Profile is a named bundle of work configuration handed to devices.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `json:"description"`
	Settings    datatypes.JSON `json:"settings"`
}
