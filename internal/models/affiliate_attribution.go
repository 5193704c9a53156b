package models

import "time"

// AffiliateAttribution remembers which link referred an email address, so an
// order placed later without the cookie can still be attributed.
type AffiliateAttribution struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	LinkID    uint      `gorm:"not null;index" json:"link_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Link AffiliateLink `gorm:"foreignKey:LinkID" json:"-"`
}

func (AffiliateAttribution) TableName() string { return "affiliate_attributions" }
