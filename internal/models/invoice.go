package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice is an order. It stays PENDING until an admin confirms the
// payment. AffiliateLinkID is set when the order was attributed to a
// referral link.
type Invoice struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Number          string         `gorm:"size:64;uniqueIndex;not null" json:"number"`
	AmountCents     int64          `gorm:"not null" json:"amount_cents"`
	Currency        string         `gorm:"size:3;default:'USD'" json:"currency"`
	Description     string         `gorm:"size:255" json:"description"`
	Status          string         `gorm:"size:20;not null;index" json:"status"`
	AffiliateLinkID *uint          `gorm:"index" json:"affiliate_link_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Invoice) TableName() string { return "invoices" }
