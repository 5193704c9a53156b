package models

import "time"

// Notification is an inbox entry for a referrer: new conversions, status
// changes and payouts. Data holds the JSON payload that was also pushed.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type      string     `gorm:"size:64;not null" json:"type"`
	Title     string     `gorm:"size:255" json:"title"`
	Body      string     `gorm:"size:1024" json:"body"`
	Data      string     `gorm:"type:text" json:"data,omitempty"`
	ReadAt    *time.Time `gorm:"index:idx_notifications_user_read,priority:2" json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
