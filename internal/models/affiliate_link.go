package models

import "time"

// AffiliateLink is the referral code owned by a user. One per user, created
// lazily and never deleted.
type AffiliateLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Code      string    `gorm:"uniqueIndex;size:20;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AffiliateLink) TableName() string { return "affiliate_links" }
