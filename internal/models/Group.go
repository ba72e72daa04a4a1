package models

import "time"

// Group is an organizational unit. ProfileID points at the work profile its
// members get when a device does not ask for one explicitly.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`

	ProfileID *uint    `gorm:"index" json:"profile_id"`
	Profile   *Profile `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"profile,omitempty"`
}
