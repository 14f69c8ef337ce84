package models

import (
	"time"
)

// UserProfile is a marketplace account. Collections and activity are attributed to it.
type UserProfile struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Email       *string   `gorm:"size:75;uniqueIndex" json:"-"`
	DisplayName string    `gorm:"size:50;not null;default:''" json:"display_name"`
	IsAdmin     bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt   time.Time `gorm:"column:created" json:"created"`
	UpdatedAt   time.Time `gorm:"column:modified" json:"-"`
}

// TableName overrides the table name for UserProfile
func (UserProfile) TableName() string {
	return "users"
}

// Name returns the display name, falling back to the username.
func (u UserProfile) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
