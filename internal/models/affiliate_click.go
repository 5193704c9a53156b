package models

import "time"

// AffiliateClick is an append-only visit record for a referral code.
type AffiliateClick struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LinkID      uint      `gorm:"not null;index" json:"link_id"`
	IPAddress   string    `gorm:"size:64" json:"ip_address"`
	UserAgent   string    `gorm:"size:1024" json:"user_agent"`
	Referrer    string    `gorm:"size:1024" json:"referrer"`
	LandingPath string    `gorm:"size:512" json:"landing_path"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	Link AffiliateLink `gorm:"foreignKey:LinkID" json:"-"`
}

func (AffiliateClick) TableName() string { return "affiliate_clicks" }
