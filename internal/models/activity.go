package models

import (
	"time"
)

// ActivityAction identifies the kind of event an ActivityLog row records.
type ActivityAction int

const (
	ActionCreateAddon          ActivityAction = 1
	ActionCreateCollection     ActivityAction = 22
	ActionAddToCollection      ActivityAction = 24
	ActionRemoveFromCollection ActivityAction = 25
	ActionDeleteCollection     ActivityAction = 26
	ActionFeatureCollection    ActivityAction = 27
	ActionUnfeatureCollection  ActivityAction = 28
	ActionAddAppVersion        ActivityAction = 29
)

// ActivityLog is an audit record of a change made through the service.
type ActivityLog struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Action    ActivityAction `gorm:"not null;index" json:"action"`
	UserID    *uint64        `gorm:"column:user_id;index" json:"user_id"`
	Arguments JSON           `json:"arguments"`
	Details   JSON           `json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"column:created;index" json:"created"`
}

// TableName overrides the table name for ActivityLog
func (ActivityLog) TableName() string {
	return "log_activity"
}
