package models

// RoleAdmin is the role name that grants access to the admin API.
const RoleAdmin = "admin"

type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}
