package models

import "time"

// AffiliateConversion is one commissionable order attributed to a link.
// CommissionRate is the rate in effect when the row was created; the
// commission is never recomputed afterwards.
type AffiliateConversion struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	LinkID          uint      `gorm:"not null;index" json:"link_id"`
	OrderID         uint      `gorm:"uniqueIndex;not null" json:"order_id"`
	AmountCents     int64     `gorm:"not null" json:"amount_cents"`
	CommissionCents int64     `gorm:"not null" json:"commission_cents"`
	CommissionRate  float64   `gorm:"not null" json:"commission_rate"`
	Status          string    `gorm:"size:20;not null;index" json:"status"` // PENDING, APPROVED, REJECTED, PAID
	Source          string    `gorm:"size:20;not null" json:"source"`       // CHECKOUT, FORCED
	Version         int       `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Link *AffiliateLink `gorm:"foreignKey:LinkID" json:"link,omitempty"`
}

func (AffiliateConversion) TableName() string { return "affiliate_conversions" }
