package models

import "time"

// SettingsID is the primary key of the single affiliate_settings row.
const SettingsID = 1

// AffiliateSettings is the admin-editable program configuration. There is
// exactly one row, id = SettingsID.
type AffiliateSettings struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CommissionRate     float64   `gorm:"not null" json:"commission_rate"`
	MinPayoutCents     int64     `gorm:"not null" json:"min_payout_cents"`
	CookieDurationDays int       `gorm:"not null" json:"cookie_duration_days"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (AffiliateSettings) TableName() string { return "affiliate_settings" }
