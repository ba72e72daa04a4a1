package models

import "time"

// Track is one location sample. Date is assigned by the server when the row is written.
type Track struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_tracks_user_date,priority:1" json:"user"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Date      time.Time `gorm:"not null;index:idx_tracks_user_date,priority:2" json:"date"`
}
