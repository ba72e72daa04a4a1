package models

import "time"

// User is a field worker or an administrator. Passwords are stored as bcrypt hashes.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	MiddleName   string    `gorm:"size:100" json:"middle_name"`
	LastName     string    `gorm:"size:100;index" json:"last_name"`
	Dept         string    `gorm:"size:255" json:"dept"`
	JobTitle     string    `gorm:"size:255" json:"job_title"`
	Phone        string    `gorm:"size:50" json:"phone"`

	RoleID  *uint  `gorm:"index" json:"role_id"`
	Role    *Role  `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"role,omitempty"`
	GroupID *uint  `gorm:"index" json:"group_id"`
	Group   *Group `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`

	// Owned rows, removed together with the user
	Device *Device `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Tracks []Track `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
